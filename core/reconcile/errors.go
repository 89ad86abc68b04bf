package reconcile

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrMalformedInput indicates a raw batch that is not in the expected shape.
	ErrMalformedInput = errors.New("malformed input")

	// ErrIdentityCollision indicates a duplicate identity key within one fresh batch.
	ErrIdentityCollision = errors.New("identity collision")

	// ErrSnapshotIO indicates the snapshot store could not be read or written.
	ErrSnapshotIO = errors.New("snapshot store failure")

	// ErrRemoteOperation indicates a failed call to the remote calendar.
	ErrRemoteOperation = errors.New("remote operation failed")

	// ErrDryRunUnsupported is returned when a dry run is requested on a store without transactions.
	ErrDryRunUnsupported = errors.New("dry run requires a transactional snapshot store")
)

// MalformedInputError reports a raw batch that had to be skipped.
type MalformedInputError struct {
	Batch  string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("batch %s: %s: %v", e.Batch, e.Reason, e.Err)
	}
	return fmt.Sprintf("batch %s: %s", e.Batch, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// IdentityCollisionError reports an identity key seen more than once in one fresh set.
// The later occurrence wins.
type IdentityCollisionError struct {
	Key         string
	Occurrences int
}

// Error implements the error interface
func (e *IdentityCollisionError) Error() string {
	return fmt.Sprintf("identity key %s appears %d times in fresh set, keeping last", e.Key, e.Occurrences)
}

// Is implements errors.Is support
func (e *IdentityCollisionError) Is(target error) bool {
	return target == ErrIdentityCollision
}

// SnapshotIOError wraps a snapshot store failure. It aborts the run.
type SnapshotIOError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface
func (e *SnapshotIOError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SnapshotIOError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SnapshotIOError) Is(target error) bool {
	return target == ErrSnapshotIO
}

// RemoteOperationError wraps a failed remote calendar call for a single item.
type RemoteOperationError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface
func (e *RemoteOperationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("remote %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RemoteOperationError) Is(target error) bool {
	return target == ErrRemoteOperation
}

func storeErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var sErr *SnapshotIOError
	if errors.As(err, &sErr) {
		return err
	}
	return &SnapshotIOError{Op: op, Key: key, Err: err}
}
