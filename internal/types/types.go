// Package types provides domain models shared across rulekeeper components.
//
// Zero-dependency design for the model itself: rules.go, types.go and
// errors.go use only the standard library. ID utilities in ids.go import uuid
// and codec.go imports yaml.v3; both are isolated so the engine packages stay
// free of transport concerns.
package types

import (
	"fmt"
	"strings"
)

// Direction selects which side of a rule is matched.
type Direction int

const (
	DirectionEncode Direction = iota
	DirectionDecode
)

// String returns "encode" or "decode".
func (d Direction) String() string {
	switch d {
	case DirectionEncode:
		return "encode"
	case DirectionDecode:
		return "decode"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection converts a lowercase direction name.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encode":
		return DirectionEncode, nil
	case "decode":
		return DirectionDecode, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if d != DirectionEncode && d != DirectionDecode {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Mode selects the substitution strategy.
type Mode int

const (
	// ModeSubstring applies every rule as a global cascading replace.
	ModeSubstring Mode = iota
	// ModeWord replaces whole whitespace-delimited tokens only.
	ModeWord
	// ModeHybrid runs word rules as ModeWord, then char rules as ModeSubstring.
	ModeHybrid
)

// String returns "substring", "word" or "hybrid".
func (m Mode) String() string {
	switch m {
	case ModeSubstring:
		return "substring"
	case ModeWord:
		return "word"
	case ModeHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a lowercase mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "substring":
		return ModeSubstring, nil
	case "word":
		return ModeWord, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m < ModeSubstring || m > ModeHybrid {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Resource limits enforced at the service boundary. The core itself accepts
// any size; these only protect the network surfaces.
const (
	// DefaultMaxTextBytes caps a single request text.
	// 4MB covers book-length inputs without letting one call pin a core for long.
	DefaultMaxTextBytes = 4 * 1024 * 1024

	// DefaultMaxRules caps rules per request.
	// Conflict analysis is O(n^2) for overlaps; 20k rules stays well under a second.
	DefaultMaxRules = 20000

	// MaxRuleSetNameLength bounds stored rule set names.
	MaxRuleSetNameLength = 128
)
