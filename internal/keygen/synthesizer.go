package keygen

import (
	"strconv"
)

// Store is the catalog view consulted during synthesis.
type Store interface {
	LookupValueByKey(key string) (string, bool)
	Conflicts(key string) bool
}

// Synthesizer mints collision-free keys against a Store.
type Synthesizer struct {
	store Store
}

func NewSynthesizer(store Store) *Synthesizer {
	return &Synthesizer{store: store}
}

// Synthesize returns namespace.fragment when it is free or already maps to text.
// Otherwise it tries the integer suffixes 2, 3, … until one is. The store is finite, so
// the loop ends.
func (s *Synthesizer) Synthesize(namespace, fragment, text string) string {
	base := s.detachFromLeaves(Join(namespace, fragment))

	for n := 1; ; n++ {
		candidate := base
		if n >= 2 {
			candidate = base + strconv.Itoa(n)
		}

		if v, ok := s.store.LookupValueByKey(candidate); ok {
			if v == text {
				return candidate
			}
			continue
		}
		if s.store.Conflicts(candidate) {
			continue
		}
		return candidate
	}
}

// detachFromLeaves folds a dot into "_" wherever a proper prefix of key is already a
// leaf, since nothing can be nested below a leaf.
func (s *Synthesizer) detachFromLeaves(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] != '.' {
			continue
		}
		if _, ok := s.store.LookupValueByKey(key[:i]); ok {
			key = key[:i] + "_" + key[i+1:]
		}
	}
	return key
}
