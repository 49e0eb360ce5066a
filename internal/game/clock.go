package game

import (
	"github.com/shopspring/decimal"
)

const incrementPlaces = 6

var (
	minIncrement  = decimal.RequireFromString("0.02")
	incrementSpan = decimal.RequireFromString("0.1")
)

// Clock advances the flight multiplier by one tick.
type Clock struct {
	src Source
}

func NewClock(src Source) *Clock {
	return &Clock{src: src}
}

// Advance returns m plus a random increment in [0.02, 0.12).
func (c *Clock) Advance(m decimal.Decimal) decimal.Decimal {
	return m.Add(Increment(c.src.Float64()))
}

// Increment maps a uniform draw u to u*0.1 + 0.02, truncated to six places.
func Increment(u float64) decimal.Decimal {
	step := decimal.NewFromFloat(unit(u)).Mul(incrementSpan).Truncate(incrementPlaces)
	return minIncrement.Add(step)
}
