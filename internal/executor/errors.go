package executor

import "errors"

// ErrExecutionFailed indicates the SQL target rejected a change script.
var ErrExecutionFailed = errors.New("change execution failed")

// ErrUnsupportedType indicates a change type the executor cannot run.
var ErrUnsupportedType = errors.New("unsupported change type")
