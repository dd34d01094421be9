// Package fsrs implements the FSRS v6 spaced repetition scheduler: a
// continuous memory model (stability, difficulty, retrievability) plus the
// discrete card lifecycle New -> Learning -> Review <-> Relearning.
//
// Everything in this package is pure. The caller supplies "now" explicitly
// and is responsible for persisting the returned card and review log.
package fsrs

import (
	"encoding/json"
	"fmt"
)

// Rating is the user's assessment of recall quality for a single review.
type Rating int

const (
	Again Rating = iota + 1 // failed to recall
	Hard                    // recalled with significant difficulty
	Good                    // recalled with some effort
	Easy                    // recalled effortlessly
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

var ratingByName = map[string]Rating{
	"Again": Again,
	"Hard":  Hard,
	"Good":  Good,
	"Easy":  Easy,
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns "Again", "Hard", "Good" or "Easy".
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating maps a rating name to its Rating value.
func ParseRating(name string) (Rating, error) {
	r, ok := ratingByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, name)
	}
	return r, nil
}

// MarshalJSON encodes the rating as its JSON string name.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return json.Marshal(ratingNames[r])
}

// UnmarshalJSON decodes a rating from its JSON string name.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, data)
	}
	v, err := ParseRating(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
