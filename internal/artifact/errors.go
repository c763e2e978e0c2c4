package artifact

import "errors"

// ErrArtifactNotFound indicates no artifact exists under the requested name.
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrArtifactExists indicates the name is already taken. Artifacts are write-once.
var ErrArtifactExists = errors.New("artifact already exists")

// ErrCorruptArtifact indicates stored bytes that do not decode to a packaged project.
var ErrCorruptArtifact = errors.New("corrupt artifact")

// ErrInvalidScript indicates a change script failed verification while packaging.
var ErrInvalidScript = errors.New("invalid change script")
