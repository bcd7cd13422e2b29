// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidRepoFormat is returned when a repository full name is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrInvalidCriteria is returned when search criteria cannot start a run.
type ErrInvalidCriteria struct {
	Field  string
	Reason string
}

func (e *ErrInvalidCriteria) Error() string {
	return fmt.Sprintf("invalid search criteria: %s %s", e.Field, e.Reason)
}

// ErrExport wraps a failure of an output sink.
type ErrExport struct {
	Sink string
	Err  error
}

func (e *ErrExport) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Sink, e.Err)
}

func (e *ErrExport) Unwrap() error { return e.Err }
