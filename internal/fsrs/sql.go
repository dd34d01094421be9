package fsrs

import (
	"database/sql/driver"
	"fmt"
)

// Rating and State are persisted by name ("Good", "Review") so rows stay
// readable and match the JSON wire form.

// Value implements driver.Valuer.
func (r Rating) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return ratingNames[r], nil
}

// Scan implements sql.Scanner.
func (r *Rating) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseRating(v)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	case []byte:
		return r.Scan(string(v))
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidRating, src)
	}
}

// Value implements driver.Valuer.
func (s State) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return stateNames[s], nil
}

// Scan implements sql.Scanner.
func (s *State) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseState(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case []byte:
		return s.Scan(string(v))
	case int64:
		state := State(v)
		if !state.IsValid() {
			return fmt.Errorf("%w: %d", ErrInvalidState, v)
		}
		*s = state
		return nil
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidState, src)
	}
}
