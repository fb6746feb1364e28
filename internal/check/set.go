package check

import "sort"

// Set is a membership-only collection of keys.
type Set map[string]struct{}

func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s Set) Add(key string) { s[key] = struct{}{} }

func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Minus returns the keys of s that are not in other.
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for k := range s {
		if !other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// Intersect returns the keys present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for k := range s {
		if other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// Sorted returns the keys in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
