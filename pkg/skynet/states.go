package skynet

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a wire value is not a member of a closed state set.
var ErrUnknownState = errors.New("unknown state")

// PressureLevel is the service's cognitive pressure label.
type PressureLevel string

const (
	PressureLow      PressureLevel = "LOW"
	PressureModerate PressureLevel = "MODERATE"
	PressureHigh     PressureLevel = "HIGH"
	PressureCritical PressureLevel = "CRITICAL"
)

// PressureLevels lists every pressure level in severity order.
var PressureLevels = []PressureLevel{PressureLow, PressureModerate, PressureHigh, PressureCritical}

// ParsePressureLevel parses s with exact, case-sensitive matching.
func ParsePressureLevel(s string) (PressureLevel, error) {
	switch l := PressureLevel(s); l {
	case PressureLow, PressureModerate, PressureHigh, PressureCritical:
		return l, nil
	default:
		return "", fmt.Errorf("pressure level %q: %w", s, ErrUnknownState)
	}
}

// Valid reports whether l is one of the four known levels.
func (l PressureLevel) Valid() bool {
	_, err := ParsePressureLevel(string(l))
	return err == nil
}

// Severity returns 0 (LOW) through 3 (CRITICAL), or -1 for an invalid level.
// The client never orders levels itself; this is for callers.
func (l PressureLevel) Severity() int {
	switch l {
	case PressureLow:
		return 0
	case PressureModerate:
		return 1
	case PressureHigh:
		return 2
	case PressureCritical:
		return 3
	default:
		return -1
	}
}

func (l PressureLevel) String() string { return string(l) }

// MarshalText implements encoding.TextMarshaler.
func (l PressureLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("pressure level %q: %w", string(l), ErrUnknownState)
	}
	return []byte(l), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values are rejected.
func (l *PressureLevel) UnmarshalText(text []byte) error {
	parsed, err := ParsePressureLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// VerbosityState is the service's output efficiency label.
type VerbosityState string

const (
	VerbosityOptimal   VerbosityState = "OPTIMAL"
	VerbosityDrifting  VerbosityState = "DRIFTING"
	VerbosityExcessive VerbosityState = "EXCESSIVE"
)

// VerbosityStates lists every verbosity state.
var VerbosityStates = []VerbosityState{VerbosityOptimal, VerbosityDrifting, VerbosityExcessive}

// ParseVerbosityState parses s with exact, case-sensitive matching.
func ParseVerbosityState(s string) (VerbosityState, error) {
	switch v := VerbosityState(s); v {
	case VerbosityOptimal, VerbosityDrifting, VerbosityExcessive:
		return v, nil
	default:
		return "", fmt.Errorf("verbosity state %q: %w", s, ErrUnknownState)
	}
}

// Valid reports whether v is one of the three known states.
func (v VerbosityState) Valid() bool {
	_, err := ParseVerbosityState(string(v))
	return err == nil
}

func (v VerbosityState) String() string { return string(v) }

// MarshalText implements encoding.TextMarshaler.
func (v VerbosityState) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("verbosity state %q: %w", string(v), ErrUnknownState)
	}
	return []byte(v), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values are rejected.
func (v *VerbosityState) UnmarshalText(text []byte) error {
	parsed, err := ParseVerbosityState(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// StabilityState is the service's session stability label.
type StabilityState string

const (
	StabilityStable   StabilityState = "STABLE"
	StabilityDecaying StabilityState = "DECAYING"
	StabilityFragile  StabilityState = "FRAGILE"
)

// StabilityStates lists every stability state.
var StabilityStates = []StabilityState{StabilityStable, StabilityDecaying, StabilityFragile}

// ParseStabilityState parses s with exact, case-sensitive matching.
func ParseStabilityState(s string) (StabilityState, error) {
	switch st := StabilityState(s); st {
	case StabilityStable, StabilityDecaying, StabilityFragile:
		return st, nil
	default:
		return "", fmt.Errorf("stability state %q: %w", s, ErrUnknownState)
	}
}

// Valid reports whether s is one of the three known states.
func (s StabilityState) Valid() bool {
	_, err := ParseStabilityState(string(s))
	return err == nil
}

func (s StabilityState) String() string { return string(s) }

// MarshalText implements encoding.TextMarshaler.
func (s StabilityState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("stability state %q: %w", string(s), ErrUnknownState)
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values are rejected.
func (s *StabilityState) UnmarshalText(text []byte) error {
	parsed, err := ParseStabilityState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
