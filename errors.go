package gitsync

import (
	"errors"
	"fmt"
)

// ErrNotARepository is returned when no repository metadata can be found
// in the workspace or any of its parent directories.
var ErrNotARepository = errors.New("not a git repository")

// ErrRepositoryExists is returned by Init when a repository already exists
// at the requested path.
var ErrRepositoryExists = errors.New("repository already exists")

// ErrAuthenticationFailed is returned when every credential strategy was
// exhausted without the remote accepting any of them.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrNetworkTimeout is returned when a fetch or push was aborted because it
// exceeded the configured operation timeout.
var ErrNetworkTimeout = errors.New("network operation timed out")

// ErrNetworkFailure is returned for transport faults that are neither
// authentication failures nor timeouts.
var ErrNetworkFailure = errors.New("network failure")

// ErrMergeDiverged describes a pull whose local and remote histories have
// both advanced. It is carried in PullResult.Reason and never returned.
var ErrMergeDiverged = errors.New("histories have diverged")

// ErrPersistence is returned when the configuration record cannot be written.
var ErrPersistence = errors.New("persistence error")

// ErrInvalidRef is returned when a reference name or revision specification
// is malformed or cannot be resolved.
var ErrInvalidRef = errors.New("invalid reference")

// ErrInvalidInput is returned for malformed arguments that are not references.
var ErrInvalidInput = errors.New("invalid input")

// ErrBranchExists is returned when attempting to create a branch that already exists.
var ErrBranchExists = errors.New("branch already exists")

// ErrPathNotFound is returned by Stage when a requested path or pattern
// matches nothing in the working tree or the index.
var ErrPathNotFound = errors.New("path not found")

// ErrSyncFailed is returned when a push could not be completed. It is
// joined with the classified cause.
var ErrSyncFailed = errors.New("sync failed")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
