package fsrs

import "errors"

// Sentinel errors. Scheduling itself is total; these only signal contract
// violations in the input, never recoverable runtime conditions.
var (
	ErrInvalidRating     = errors.New("fsrs: invalid rating")
	ErrInvalidState      = errors.New("fsrs: invalid state")
	ErrNegativeStability = errors.New("fsrs: negative stability")
	ErrInvalidParams     = errors.New("fsrs: parameters out of bounds")
)
