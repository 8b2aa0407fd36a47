package chart

import "math"

// monotoneSpline samples a monotone cubic (Fritsch–Carlson) interpolation of
// the points, steps samples per segment. The curve passes through every point
// and never overshoots between them.
func monotoneSpline(xs, ys []float64, steps int) ([]float64, []float64) {
	n := len(xs)
	if n < 3 || steps < 2 {
		return append([]float64(nil), xs...), append([]float64(nil), ys...)
	}

	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		delta[i] = (ys[i+1] - ys[i]) / (xs[i+1] - xs[i])
	}

	m := make([]float64, n)
	m[0] = delta[0]
	m[n-1] = delta[n-2]
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			m[i] = 0
		} else {
			m[i] = (delta[i-1] + delta[i]) / 2
		}
	}

	for i := 0; i < n-1; i++ {
		if delta[i] == 0 {
			m[i] = 0
			m[i+1] = 0
			continue
		}
		a := m[i] / delta[i]
		b := m[i+1] / delta[i]
		if s := a*a + b*b; s > 9 {
			tau := 3 / math.Sqrt(s)
			m[i] = tau * a * delta[i]
			m[i+1] = tau * b * delta[i]
		}
	}

	outX := make([]float64, 0, (n-1)*steps+1)
	outY := make([]float64, 0, (n-1)*steps+1)
	for i := 0; i < n-1; i++ {
		h := xs[i+1] - xs[i]
		for k := 0; k < steps; k++ {
			t := float64(k) / float64(steps)
			t2, t3 := t*t, t*t*t
			y := (2*t3-3*t2+1)*ys[i] +
				(t3-2*t2+t)*h*m[i] +
				(-2*t3+3*t2)*ys[i+1] +
				(t3-t2)*h*m[i+1]
			outX = append(outX, xs[i]+t*h)
			outY = append(outY, y)
		}
	}
	outX = append(outX, xs[n-1])
	outY = append(outY, ys[n-1])

	return outX, outY
}
