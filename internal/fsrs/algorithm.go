package fsrs

import "math"

// algo holds constants precomputed from the 21 weights.
type algo struct {
	w      [21]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1, so retrievability(S, S) = 0.9
}

func newAlgo(w [21]float64) algo {
	decay := -w[20]
	factor := math.Pow(0.9, 1.0/decay) - 1.0
	return algo{w: w, decay: decay, factor: factor}
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
func (a *algo) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+a.factor*elapsedDays/stability, a.decay)
}

// initStability returns the first-review stability S0(G) = w[G-1].
func (a *algo) initStability(r Rating) float64 {
	return clampStability(a.w[r-1])
}

// initDifficulty returns the first-review difficulty
// D0(G) = w[4] - e^(w[5] * (G - 1)) + 1, clamped to [1, 10] unless the
// caller needs the raw value as a mean-reversion target.
func (a *algo) initDifficulty(r Rating, clamp bool) float64 {
	d := a.w[4] - math.Exp(a.w[5]*float64(r-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextInterval converts stability into a scheduled gap in days:
// I(r, S) = round((S / FACTOR) * (r^(1/DECAY) - 1)), clamped to [1, maxIvl].
func (a *algo) nextInterval(stability, requestRetention float64, maxIvl int) int {
	ivl := stability / a.factor * (math.Pow(requestRetention, 1.0/a.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > maxIvl {
		days = maxIvl
	}
	return days
}

// shortTermStability handles same-day reviews:
// SInc = e^(w[17] * (G - 3 + w[18])) * S^(-w[19]), floored at 1 for
// Good/Easy so a successful same-day review never shrinks stability.
func (a *algo) shortTermStability(stability float64, r Rating) float64 {
	sInc := math.Exp(a.w[17]*(float64(r)-3+a.w[18])) * math.Pow(stability, -a.w[19])
	if r == Good || r == Easy {
		sInc = math.Max(sInc, 1.0)
	}
	return clampStability(stability * sInc)
}

// nextStability dispatches on lapse vs successful recall.
func (a *algo) nextStability(difficulty, stability, retr float64, rating Rating) float64 {
	if rating == Again {
		return clampStability(a.nextForgetStability(difficulty, stability, retr))
	}
	return clampStability(a.nextRecallStability(difficulty, stability, retr, rating))
}

// nextRecallStability grows stability after a successful cross-day recall.
// The growth factor is larger when retrievability was low (recall despite
// being at risk) and smaller when difficulty is high:
// S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (a *algo) nextRecallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = a.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = a.w[16]
	}
	return s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp((1-r)*a.w[10])-1)*
		hardPenalty*easyBonus)
}

// nextForgetStability shrinks stability after a lapse:
// S'_f = min(w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14]), S / e^(w[17]*w[18]))
// The min with the short-term term guarantees post-lapse stability is below
// the pre-lapse value.
func (a *algo) nextForgetStability(d, s, r float64) float64 {
	long := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp((1-r)*a.w[14])
	short := s / math.Exp(a.w[17]*a.w[18])
	return math.Min(long, short)
}

// nextDifficulty moves difficulty toward the rating-dependent target with
// linear damping, then mean-reverts toward D0(Easy):
// D'  = D - w[6]*(G-3) * (10-D)/9
// D'' = w[7]*D0(Easy) + (1-w[7])*D'
func (a *algo) nextDifficulty(difficulty float64, r Rating) float64 {
	deltaD := -a.w[6] * (float64(r) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	d0Easy := a.initDifficulty(Easy, false)
	return clampDifficulty(a.w[7]*d0Easy + (1-a.w[7])*dPrime)
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
