package types

import "fmt"

// LifecycleState represents the retention stage of a memory record
type LifecycleState string

const (
	// LifecycleActive is the initial state of every saved record
	LifecycleActive LifecycleState = "ACTIVE"
	// LifecycleCompressed marks records whose content has been shortened
	LifecycleCompressed LifecycleState = "COMPRESSED"
	// LifecycleArchived is terminal for the normal flow; archived records are
	// excluded from retrieval and only reachable via export/maintenance
	LifecycleArchived LifecycleState = "ARCHIVED"
)

// AllLifecycleStates returns all valid lifecycle states
func AllLifecycleStates() []LifecycleState {
	return []LifecycleState{
		LifecycleActive,
		LifecycleCompressed,
		LifecycleArchived,
	}
}

// RetrievableStates returns the states visible to Retrieve
func RetrievableStates() []LifecycleState {
	return []LifecycleState{
		LifecycleActive,
		LifecycleCompressed,
	}
}

// IsValid checks if the lifecycle state is valid
func (s LifecycleState) IsValid() bool {
	switch s {
	case LifecycleActive,
		LifecycleCompressed,
		LifecycleArchived:
		return true
	default:
		return false
	}
}

// Normalize returns the state, treating empty as LifecycleActive for
// records written before lifecycle management existed.
func (s LifecycleState) Normalize() LifecycleState {
	if s == "" {
		return LifecycleActive
	}
	return s
}

// CanTransition reports whether next is reachable from s. Transitions are
// monotonic: a record never moves backward.
func (s LifecycleState) CanTransition(next LifecycleState) bool {
	switch s.Normalize() {
	case LifecycleActive:
		return next == LifecycleCompressed || next == LifecycleArchived
	case LifecycleCompressed:
		return next == LifecycleArchived
	default:
		return false
	}
}

// String returns the string representation of the lifecycle state
func (s LifecycleState) String() string {
	return string(s)
}

// ParseLifecycleState parses a string into a LifecycleState
func ParseLifecycleState(s string) (LifecycleState, error) {
	state := LifecycleState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid lifecycle state: %s", s)
	}
	return state, nil
}
