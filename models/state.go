package models

import "fmt"

// State governs whether a project can be joined and where it is listed
type State string

const (
	StateOpen    State = "Open"
	StateHidden  State = "Hidden"
	StateClosed  State = "Closed"
	StateDeleted State = "Deleted"
)

// ParseState converts a state name into a State.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case StateOpen, StateHidden, StateClosed, StateDeleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown project state %q", s)
}

func (s State) IsValid() bool {
	_, err := ParseState(string(s))
	return err == nil
}

func (s State) String() string {
	return string(s)
}
