package server

import (
	"crypto/subtle"
	"net/http"
	"time"
)

const (
	tokenCookieName = "rc_token"
	tokenCookieTTL  = 24 * time.Hour
)

// authMiddleware guards a page with the startup token.
//
//	?logout=1  clears the cookie and returns to the bare path
//	?token=..  exchanges a valid token for a cookie, then drops it from the URL
//	otherwise  the cookie must carry the token
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("logout") == "1" {
			setTokenCookie(w, "", -1)
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
			return
		}

		if token := q.Get("token"); token != "" {
			if !s.validToken(token) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			setTokenCookie(w, s.token, int(tokenCookieTTL/time.Second))
			q.Del("token")
			clean := *r.URL
			clean.RawQuery = q.Encode()
			http.Redirect(w, r, clean.String(), http.StatusFound)
			return
		}

		cookie, err := r.Cookie(tokenCookieName)
		if err != nil || !s.validToken(cookie.Value) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) validToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

// setTokenCookie writes the session cookie; a negative maxAge deletes it.
func setTokenCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	})
}
