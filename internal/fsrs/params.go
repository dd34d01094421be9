package fsrs

import (
	"fmt"
	"time"
)

// DefaultWeights are the FSRS v6 default parameter values from the
// fsrs4anki project.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability per rating
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] easy bonus / short-term
	0.1542, // w[20] decay exponent
}

// weight bounds for validation, per rating parameter index.
var (
	weightLowerBounds = [21]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001, 0.001,
		0.001, 0.001, 0.0, 0.0,
		1.0, 0.0, 0.0, 0.0,
		0.1,
	}
	weightUpperBounds = [21]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// Params configures a Scheduler.
type Params struct {
	Weights          [21]float64
	RequestRetention float64 // recall probability the scheduler aims to maintain
	MaximumInterval  int     // days
	EnableFuzz       bool
	EnableShortTerm  bool // sub-day Learning/Relearning ladder
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
}

// DefaultParams returns the parameter set the original service ships with:
// 90% target retention, ~100 year interval cap, fuzz and short-term
// scheduling enabled.
func DefaultParams() Params {
	return Params{
		Weights:          DefaultWeights,
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		EnableFuzz:       true,
		EnableShortTerm:  true,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
	}
}

// Validate checks the parameter set against the FSRS v6 bounds.
func (p Params) Validate() error {
	for i := range p.Weights {
		if p.Weights[i] < weightLowerBounds[i] || p.Weights[i] > weightUpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParams, i, p.Weights[i], weightLowerBounds[i], weightUpperBounds[i])
		}
	}
	if p.RequestRetention <= 0 || p.RequestRetention >= 1 {
		return fmt.Errorf("%w: request retention %f outside (0, 1)", ErrInvalidParams, p.RequestRetention)
	}
	if p.MaximumInterval <= 0 {
		return fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidParams, p.MaximumInterval)
	}
	return nil
}
