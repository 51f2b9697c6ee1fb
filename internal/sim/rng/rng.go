// Package rng provides the explicit, seeded random streams used by the
// combat core. There is no ambient RNG: every draw comes from a named
// stream and is reported to an optional sink, so any sequence of combat
// outcomes can be replayed and audited draw by draw.
package rng

import "hash/fnv"

// Sink receives one record per draw.
type Sink interface {
	RecordDraw(stream string, counter uint64, value float64)
}

// Stream is a deterministic, counter-based random stream. The n-th draw of
// a stream depends only on (seed, id, n), never on wall clock or call site.
type Stream struct {
	seed    int64
	id      string
	idHash  uint64
	counter uint64
	sink    Sink
}

func New(seed int64, id string) *Stream {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return &Stream{seed: seed, id: id, idHash: h.Sum64()}
}

// SetSink attaches a draw sink. A nil sink disables reporting.
func (s *Stream) SetSink(sink Sink) { s.sink = sink }

func (s *Stream) ID() string { return s.id }

// Counter returns the number of draws taken so far.
func (s *Stream) Counter() uint64 { return s.counter }

// Float64 draws a value in [0,1).
func (s *Stream) Float64() float64 {
	v := uint64(s.seed) ^ (s.idHash * 0x9e3779b97f4a7c15) ^ (s.counter * 0xbf58476d1ce4e5b9)
	s.counter++
	f := float64(mix64(v)>>11) / (1 << 53)
	if s.sink != nil {
		s.sink.RecordDraw(s.id, s.counter-1, f)
	}
	return f
}

// IntN draws a value in [0,n). n must be positive.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("rng: IntN with non-positive n")
	}
	return int(s.Float64() * float64(n))
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
