package selection

import (
	"fmt"
	"strings"
)

// DefaultName is the variation selected when nothing else is asked for.
const DefaultName = "Original"

// Selection is an ordered set of selected variation names. Toggle never
// empties it.
type Selection struct {
	names []string
}

func New(initial ...string) *Selection {
	return &Selection{names: dedup(initial)}
}

// Default returns the starting selection for a dataset's variation names.
func Default(all []string) *Selection {
	for _, name := range all {
		if name == DefaultName {
			return New(DefaultName)
		}
	}
	if len(all) > 0 {
		return New(all[0])
	}
	return New()
}

// Parse builds a selection from repeated and/or comma-separated values.
func Parse(values []string) *Selection {
	var names []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
	}
	return New(names...)
}

func (s *Selection) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Selection) Len() int {
	return len(s.names)
}

func (s *Selection) Contains(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// Toggle removes name if selected (unless it is the only one left) or
// appends it otherwise.
func (s *Selection) Toggle(name string) {
	if !s.Contains(name) {
		s.names = append(s.names, name)
		return
	}
	if len(s.names) == 1 {
		return
	}

	kept := s.names[:0:0]
	for _, n := range s.names {
		if n != name {
			kept = append(kept, n)
		}
	}
	s.names = kept
}

func (s *Selection) SelectAll(all []string) {
	s.names = dedup(all)
}

func (s *Selection) SelectOne(first string) {
	s.names = []string{first}
}

// Label is the picker caption: "All Variations" or "<n> selected".
func (s *Selection) Label(all []string) string {
	if len(s.names) == len(all) {
		return "All Variations"
	}
	return fmt.Sprintf("%d selected", len(s.names))
}

// String renders the selection as a comma-separated list.
func (s *Selection) String() string {
	return strings.Join(s.names, ",")
}

func dedup(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
