package model

import (
	"errors"
	"fmt"
)

var (
	ErrDiagramNotFound = errors.New("diagram not found")
	ErrInvalidDiagram  = errors.New("invalid diagram")
)

// LookupError reports a failure of the lookup backend.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// LoadError reports a failure of the load backend.
type LoadError struct {
	Path Path
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistError reports a failure of the persistence backend.
type PersistError struct {
	Path Path
	Err  error
}

func (e *PersistError) Error() string {
	if e.Path.IsZero() {
		return fmt.Sprintf("persist: %v", e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
