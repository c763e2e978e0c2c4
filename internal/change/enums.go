package change

import (
	"fmt"
	"strings"
)

// Timing decides the phase a change runs in. Pre changes always run before
// Post changes for a given direction.
type Timing int

const (
	// Pre changes run before the application is deployed.
	Pre Timing = iota + 1
	// Post changes run after the application is deployed.
	Post
)

// ParseTiming maps "pre" or "post" to a Timing.
func ParseTiming(s string) (Timing, error) {
	switch s {
	case "pre":
		return Pre, nil
	case "post":
		return Post, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected pre or post)", ErrInvalidTiming, s)
	}
}

// String returns the canonical lowercase name.
func (t Timing) String() string {
	switch t {
	case Pre:
		return "pre"
	case Post:
		return "post"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Timing) MarshalText() ([]byte, error) {
	if t != Pre && t != Post {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTiming, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The capitalised names
// written by older project documents are accepted.
func (t *Timing) UnmarshalText(text []byte) error {
	parsed, err := ParseTiming(legacyName(string(text)))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// Type is the kind of script a change holds. Execution dispatches on it.
type Type int

const (
	// SQL changes hold SQL scripts executed verbatim against the target.
	SQL Type = iota + 1
)

// ParseType maps a change type name to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "sql":
		return SQL, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected sql)", ErrInvalidType, s)
	}
}

// String returns the canonical lowercase name.
func (t Type) String() string {
	switch t {
	case SQL:
		return "sql"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if t != SQL {
		return nil, fmt.Errorf("%w: %d", ErrInvalidType, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(legacyName(string(text)))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// Direction selects which script of a change is used.
type Direction int

const (
	// Up applies a change.
	Up Direction = iota + 1
	// Down reverts a change.
	Down
)

// ParseDirection maps "up" or "down" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected up or down)", ErrInvalidDirection, s)
	}
}

// String returns the canonical lowercase name.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// FileName is the script file backing this direction in a change directory.
func (d Direction) FileName() string {
	return d.String() + ".sql"
}

// legacyName lowercases the exact variant names older documents used and
// leaves everything else alone, so "PRE" or "sQl" are still rejected.
func legacyName(s string) string {
	switch s {
	case "Pre", "Post", "Sql":
		return strings.ToLower(s)
	default:
		return s
	}
}
