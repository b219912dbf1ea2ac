package domain

import (
	"errors"
	"fmt"
)

// ErrPrecondition marks a stage invoked in a state it does not accept.
var ErrPrecondition = errors.New("precondition violation")

// ErrorKind is the per-file failure taxonomy.
type ErrorKind int

const (
	ReadError ErrorKind = iota
	WriteError
	PreconditionViolation
)

func (k ErrorKind) String() string {
	switch k {
	case ReadError:
		return "read"
	case WriteError:
		return "write"
	case PreconditionViolation:
		return "precondition"
	}
	return "unknown"
}

// FileError is a failure bound to one file.
type FileError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s error on %s: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind, treating unknown errors as contract errors.
func KindOf(err error) ErrorKind {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return PreconditionViolation
}

// EngineRevision changes whenever rule output changes, invalidating caches.
const EngineRevision = 1
