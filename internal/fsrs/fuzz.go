package fsrs

import (
	"math"
	"math/rand"
	"time"
)

type fuzzRange struct {
	start, end float64
	factor     float64
}

var fuzzRanges = []fuzzRange{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// fuzzDelta computes the allowed deviation for an interval:
// delta = 1.0 + sum(factor * max(min(interval, end) - start, 0)).
func fuzzDelta(interval float64) float64 {
	delta := 1.0
	for _, r := range fuzzRanges {
		delta += r.factor * math.Max(math.Min(interval, r.end)-r.start, 0)
	}
	return delta
}

// applyFuzz perturbs the interval so cards scheduled together do not all
// resurface on the same day. Intervals under 2.5 days are left alone.
func applyFuzz(interval, maxIvl int, rng *rand.Rand) int {
	if float64(interval) < 2.5 {
		return interval
	}

	ivl := float64(interval)
	delta := fuzzDelta(ivl)

	minIvl := max(2, int(math.Round(ivl-delta)))
	maxFuzzIvl := min(int(math.Round(ivl+delta)), maxIvl)
	minIvl = min(minIvl, maxFuzzIvl)

	fuzzed := int(math.Round(rng.Float64()*float64(maxFuzzIvl-minIvl+1))) + minIvl
	return min(fuzzed, maxIvl)
}

// fuzzRNG returns a generator seeded from the card's identity and the review
// day, so a projection previewed to the user matches the outcome persisted
// when they pick a rating later the same day.
func fuzzRNG(cardID int64, now time.Time) *rand.Rand {
	day := now.Unix() / 86400
	return rand.New(rand.NewSource(cardID*1_000_003 + day))
}
