package core

import (
	"errors"
	"fmt"
)

// ErrNotInstallation is returned by a Prober when a directory is not a JDK home.
// It is expected during scans and never reported.
var ErrNotInstallation = errors.New("not a jdk installation")

// ErrAlreadyRunning is returned when starting an engine that is not stopped
var ErrAlreadyRunning = errors.New("detect engine already running")

// EnumerationError means the candidate set could not be computed; the scan is skipped
type EnumerationError struct {
	Location string
	Err      error
}

func (e *EnumerationError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("enumerate candidates: %v", e.Err)
	}
	return fmt.Sprintf("enumerate candidates at %s: %v", e.Location, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// ProbeError is an unexpected failure probing one directory
type ProbeError struct {
	Dir string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Dir, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// WatchError is a failure registering a watch on one location
type WatchError struct {
	Location string
	Err      error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Location, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// IsEnumerationError reports whether err is, or wraps, an EnumerationError
func IsEnumerationError(err error) bool {
	var enumErr *EnumerationError
	return errors.As(err, &enumErr)
}
