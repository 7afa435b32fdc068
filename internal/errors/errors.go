// Package errors provides sentinel errors for gitbean operations.
package errors

import "errors"

// Transport errors
var (
	// ErrTransport indicates the bean invocation could not be delivered or its
	// response could not be understood.
	ErrTransport = errors.New("bean transport failure")

	// ErrRemote indicates the bean bridge answered with an error status.
	ErrRemote = errors.New("remote bean error")
)

// Facade errors
var (
	// ErrUnknownOperation indicates the bean does not expose the requested operation.
	ErrUnknownOperation = errors.New("unknown bean operation")

	// ErrInvalidArguments indicates the operation was invoked with the wrong arguments.
	ErrInvalidArguments = errors.New("invalid operation arguments")

	// ErrPathNotFound indicates the path does not exist on the branch.
	ErrPathNotFound = errors.New("path not found")

	// ErrStagedChanges indicates the index holds changes to other paths that a
	// commit would sweep in.
	ErrStagedChanges = errors.New("repository has unrelated staged changes")

	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("path is not a git repository")
)

// Preference errors
var (
	// ErrPreferenceNotFound indicates the preference key is not stored.
	ErrPreferenceNotFound = errors.New("preference not found")

	// ErrInvalidPreferenceKey indicates the preference key is empty or malformed.
	ErrInvalidPreferenceKey = errors.New("invalid preference key")

	// ErrLocked indicates another process holds the lock.
	ErrLocked = errors.New("locked by another process")
)

// Input errors
var (
	// ErrInvalidBranch indicates the branch name is not a valid git ref.
	ErrInvalidBranch = errors.New("invalid branch name")

	// ErrInvalidMBean indicates the bean name is not a valid JMX object name.
	ErrInvalidMBean = errors.New("invalid mbean name: must be domain:key=value[,key=value]")
)
