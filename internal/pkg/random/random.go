// Package random provides the uniform integer sources used for prize placement
// and reveal sampling.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"
)

// Source draws uniformly distributed integers.
type Source interface {
	// IntRange returns a uniform integer in the closed range [min, max].
	// Callers must ensure min <= max.
	IntRange(min, max int) int
}

// cryptoSource draws from crypto/rand.
type cryptoSource struct{}

// NewCrypto returns a Source backed by the operating system CSPRNG.
// Use it in production so prize placement is unpredictable.
func NewCrypto() Source {
	return cryptoSource{}
}

// IntRange returns a uniform random int in [min, max].
func (cryptoSource) IntRange(min, max int) int {
	n := max - min + 1
	if n <= 1 {
		return min
	}
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(fmt.Sprintf("random: read crypto source: %v", err))
	}
	return min + int(v.Int64())
}

// seededSource is a deterministic math/rand source, safe for concurrent use.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic Source.
// If seed is 0, the current time is used.
func NewSeeded(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

// IntRange returns a uniform int in [min, max].
func (s *seededSource) IntRange(min, max int) int {
	n := max - min + 1
	if n <= 1 {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Intn(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
