package game

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProbability = errors.New("crash probability must be in (0, 1)")

// CrashGenerator decides, tick by tick, whether a flight ends. There is no
// precomputed crash point: the round crashes at whatever multiplier is
// current when a trial succeeds.
type CrashGenerator struct {
	p   float64
	src Source
}

func NewCrashGenerator(p float64, src Source) (*CrashGenerator, error) {
	if !(p > 0 && p < 1) {
		return nil, ErrProbability
	}
	return &CrashGenerator{p: p, src: src}, nil
}

// Probability returns the per-tick crash chance.
func (g *CrashGenerator) Probability() float64 {
	return g.p
}

// Crashes runs one Bernoulli trial.
func (g *CrashGenerator) Crashes() bool {
	return unit(g.src.Float64()) < g.p
}

// Draw plays a full flight from 1.00 and returns the crash point together
// with the number of ticks that survived before the crash.
func Draw(gen *CrashGenerator, clock *Clock) (decimal.Decimal, int) {
	m := StartMultiplier
	ticks := 0
	for !gen.Crashes() {
		m = clock.Advance(m)
		ticks++
	}
	return m, ticks
}
