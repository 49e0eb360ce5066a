// Command simulate draws crash points offline and prints their distribution.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/shopspring/decimal"

	"luckyjet/internal/game"
	"luckyjet/internal/models"
	"luckyjet/pkg/crypto"
)

func main() {
	n := flag.Int("n", 10000, "rounds to simulate")
	p := flag.Float64("p", 0.02, "per-tick crash probability")
	seed := flag.Uint64("seed", 0, "PCG seed; 0 uses the system CSPRNG")
	flag.Parse()

	if *n < 1 {
		fmt.Fprintln(os.Stderr, "simulate: -n must be at least 1")
		os.Exit(2)
	}

	var src game.Source = crypto.Source{}
	if *seed != 0 {
		src = rand.New(rand.NewPCG(*seed, *seed))
	}
	gen, err := game.NewCrashGenerator(*p, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(2)
	}
	clock := game.NewClock(src)

	points := make([]decimal.Decimal, *n)
	tiers := map[models.Tier]int{}
	sum := decimal.Zero
	ticks := 0
	for i := range points {
		point, t := game.Draw(gen, clock)
		points[i] = point
		sum = sum.Add(point)
		ticks += t
		tiers[models.TierOf(point)]++
	}
	slices.SortFunc(points, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	fmt.Printf("rounds:      %d\n", *n)
	fmt.Printf("probability: %v\n", *p)
	fmt.Printf("mean ticks:  %.2f\n", float64(ticks)/float64(*n))
	fmt.Printf("mean:        %s\n", sum.Div(decimal.NewFromInt(int64(*n))).StringFixed(2))
	fmt.Printf("median:      %s\n", points[len(points)/2].StringFixed(2))
	fmt.Printf("max:         %s\n", points[len(points)-1].StringFixed(2))
	fmt.Println("tiers:")
	for _, tier := range []models.Tier{models.TierLow, models.TierMedium, models.TierHigh, models.TierEpic} {
		fmt.Printf("  %-7s %6d  %5.1f%%\n", tier, tiers[tier], 100*float64(tiers[tier])/float64(*n))
	}
}
