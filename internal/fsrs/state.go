package fsrs

import (
	"encoding/json"
	"fmt"
)

// State is the learning stage of a card.
type State int

const (
	New        State = iota // created, never reviewed
	Learning                // in the initial short-step ladder
	Review                  // in the long-term review cycle
	Relearning              // lapsed, back in the short-step ladder
)

var stateNames = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}

var stateByName = map[string]State{
	"New":        New,
	"Learning":   Learning,
	"Review":     Review,
	"Relearning": Relearning,
}

// IsValid reports whether s is a defined state.
func (s State) IsValid() bool {
	return s >= New && s <= Relearning
}

// String returns "New", "Learning", "Review" or "Relearning".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState maps a state name to its State value.
func ParseState(name string) (State, error) {
	s, ok := stateByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, name)
	}
	return s, nil
}

// MarshalJSON encodes the state as its JSON string name.
func (s State) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return json.Marshal(stateNames[s])
}

// UnmarshalJSON decodes a state from its JSON string name.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, data)
	}
	v, err := ParseState(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
