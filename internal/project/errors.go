package project

import "errors"

// ErrProjectNotFound indicates no project document exists for the name.
var ErrProjectNotFound = errors.New("project not found")

// ErrProjectExists indicates init was asked to create an existing project.
var ErrProjectExists = errors.New("project already exists")

// ErrInvalidName indicates a project name that cannot be used as a directory.
var ErrInvalidName = errors.New("invalid project name")

// ErrCorruptProject indicates the project document could not be decoded or
// violates a model invariant.
var ErrCorruptProject = errors.New("corrupt project document")

// ErrChangeNotFound indicates no change matches a hash prefix.
var ErrChangeNotFound = errors.New("no change matches hash")

// ErrAmbiguousHash indicates a hash prefix matches more than one change.
var ErrAmbiguousHash = errors.New("hash matches more than one change")

// ErrEmptyPrefix indicates a lookup with an empty hash prefix.
var ErrEmptyPrefix = errors.New("hash prefix must not be empty")

// ErrIdentityExhausted indicates repeated identity collisions while adding a change.
var ErrIdentityExhausted = errors.New("could not generate a unique change hash")
