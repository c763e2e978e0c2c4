package database

import "errors"

// ErrInvalidDatabaseURL indicates the provided database URL could not be parsed.
var ErrInvalidDatabaseURL = errors.New("invalid database URL")

// ErrConnectionFailed indicates a connection to the database could not be established.
var ErrConnectionFailed = errors.New("database connection failed")

// ErrLockNotAcquired indicates another tiger run holds the advisory lock.
var ErrLockNotAcquired = errors.New("run lock not acquired")

// ErrUnknownDriver indicates an unsupported sql.driver setting.
var ErrUnknownDriver = errors.New("unknown SQL driver")
