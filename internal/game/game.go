package game

import (
	"math"

	"github.com/shopspring/decimal"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// StartMultiplier is the value every flight begins at.
var StartMultiplier = decimal.NewFromInt(1)

// unit clamps u into [0, 1) so a misbehaving source can never push an
// increment or trial outside its documented range.
func unit(u float64) float64 {
	switch {
	case math.IsNaN(u) || u < 0:
		return 0
	case u >= 1:
		return math.Nextafter(1, 0)
	}
	return u
}
