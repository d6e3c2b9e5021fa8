package changeset

import (
	"fmt"
	"strings"
)

// NoWorkspaceError is returned when there is no working directory to resolve from.
type NoWorkspaceError struct{}

func (e *NoWorkspaceError) Error() string {
	return "no workspace is open"
}

// NoRepositoryError is returned when the directory is not inside a git working tree.
type NoRepositoryError struct {
	Dir string
	Err error
}

func (e *NoRepositoryError) Error() string {
	return fmt.Sprintf("no git repository found at %s", e.Dir)
}

func (e *NoRepositoryError) Unwrap() error {
	return e.Err
}

// NoDefaultBranchError is returned when none of the default branch candidates exist locally.
type NoDefaultBranchError struct {
	Tried []string
}

func (e *NoDefaultBranchError) Error() string {
	return fmt.Sprintf("no local %s branch found", strings.Join(e.Tried, " or "))
}

// QueryFailedError wraps any other failing git query.
type QueryFailedError struct {
	Query string
	Err   error
}

func (e *QueryFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Query)
	}
	return fmt.Sprintf("%s failed: %v", e.Query, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}
