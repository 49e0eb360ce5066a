// Package gametest provides deterministic random sources for round tests.
package gametest

// Sequence replays a fixed list of draws, wrapping around at the end.
type Sequence struct {
	vals []float64
	next int
}

func NewSequence(vals ...float64) *Sequence {
	if len(vals) == 0 {
		vals = []float64{0.5}
	}
	return &Sequence{vals: vals}
}

func (s *Sequence) Float64() float64 {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v
}

// Draws is the number of values consumed so far.
func (s *Sequence) Draws() int {
	return s.next
}

// Push appends more draws after the ones already queued.
func (s *Sequence) Push(vals ...float64) {
	s.vals = append(s.vals, vals...)
}

// Flight builds the draws for n surviving flight ticks: a failed crash trial
// (survive) followed by the increment draw u, for each tick.
func Flight(n int, survive, u float64) []float64 {
	out := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, survive, u)
	}
	return out
}
