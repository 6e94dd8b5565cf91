package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"sync"
)

// Source hands out independent generators, one per simulation call, so
// concurrent matches never share random state. A non-zero seed makes the
// sequence of generators reproducible.
type Source struct {
	mu   sync.Mutex
	seed uint64
	next uint64
}

func NewSource(seed uint64) *Source {
	return &Source{seed: seed}
}

// New returns a fresh generator.
func (s *Source) New() *rand.Rand {
	if s == nil || s.seed == 0 {
		return rand.New(rand.NewPCG(cryptoUint64(), cryptoUint64()))
	}

	s.mu.Lock()
	s.next++
	stream := s.next
	s.mu.Unlock()
	return rand.New(rand.NewPCG(s.seed, stream))
}

// ForKey returns a generator derived from the seed and key, so the same key
// replays the same draws. Without a seed it falls back to New.
func (s *Source) ForKey(key string) *rand.Rand {
	if s == nil || s.seed == 0 {
		return s.New()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}

func cryptoUint64() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(buf[:])
}
