package change

import "errors"

// ErrInvalidTiming indicates a timing value other than pre or post.
var ErrInvalidTiming = errors.New("invalid timing")

// ErrInvalidType indicates an unknown change type.
var ErrInvalidType = errors.New("invalid change type")

// ErrInvalidDirection indicates a direction other than up or down.
var ErrInvalidDirection = errors.New("invalid direction")

// ErrScriptMissing indicates a live change has no script file for a direction.
var ErrScriptMissing = errors.New("change script missing")
