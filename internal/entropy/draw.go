package entropy

import (
	"math"
	"math/rand"
	"sync"
)

// Seeded is a reproducible Source. Two Seeded sources built from the same
// seed yield the same sequence.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded creates a deterministic source.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// Float implements Source.
func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Sequence replays a fixed list of values, wrapping around at the end.
// Values outside [0, 1) are clamped. Intended for tests that need to force
// a particular branch.
type Sequence struct {
	Values []float64
	next   int
}

// Float implements Source.
func (s *Sequence) Float() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}

// Intn returns an int in [0, n). Returns 0 when n <= 0.
func Intn(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Range returns a float in [lo, hi).
func Range(src Source, lo, hi float64) float64 {
	return lo + src.Float()*(hi-lo)
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float() < p
}

// Shuffle permutes n elements with Fisher-Yates, calling swap for each exchange.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := Intn(src, i+1)
		swap(i, j)
	}
}

// Pick returns a uniformly chosen element. The zero value is returned for an empty slice.
func Pick[T any](src Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[Intn(src, len(items))]
}

// Reader adapts a Source to an io.Reader so byte-hungry consumers (uuid) stay
// on the same reproducible stream.
func Reader(src Source) *SourceReader {
	return &SourceReader{src: src}
}

// SourceReader reads bytes drawn from a Source.
type SourceReader struct {
	src Source
}

// Read fills p with one byte per draw. It never fails.
func (r *SourceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(Intn(r.src, 256))
	}
	return len(p), nil
}
