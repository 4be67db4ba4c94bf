package hash

import "github.com/cespare/xxhash/v2"

// Sum64 computes the xxHash64 of the given string.
func Sum64(data string) uint64 {
	return xxhash.Sum64String(data)
}

// KeySet tracks decoded map keys by xxHash64 fingerprint so struct decoding
// can detect duplicate keys. Each fingerprint keeps the key string it was
// first recorded with, and fingerprint collisions between distinct keys are
// disambiguated by comparing the stored names, so a collision never produces
// a false duplicate.
type KeySet struct {
	seen map[uint64]string
	// overflow holds keys whose fingerprint collided with a different key.
	overflow []string
}

// NewKeySet creates an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[uint64]string)}
}

// Add records the key and reports whether it was already present.
func (s *KeySet) Add(key string) bool {
	id := xxhash.Sum64String(key)

	existing, ok := s.seen[id]
	if !ok {
		s.seen[id] = key
		return false
	}
	if existing == key {
		return true
	}

	// Fingerprint collision between distinct keys.
	for _, name := range s.overflow {
		if name == key {
			return true
		}
	}
	s.overflow = append(s.overflow, key)

	return false
}

// Len returns the number of distinct keys recorded.
func (s *KeySet) Len() int {
	return len(s.seen) + len(s.overflow)
}
