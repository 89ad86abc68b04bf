package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteOperationError_Message(t *testing.T) {
	cause := errors.New("quota exceeded")

	keyed := &RemoteOperationError{Op: "insert", Key: "1_2024-01-15T10:00:00", Err: cause}
	assert.Equal(t, "remote insert 1_2024-01-15T10:00:00: quota exceeded", keyed.Error())

	whole := &RemoteOperationError{Op: "flush", Err: cause}
	assert.Equal(t, "remote flush: quota exceeded", whole.Error())

	assert.ErrorIs(t, whole, ErrRemoteOperation)
	assert.ErrorIs(t, whole, cause)
}

func TestSnapshotIOError_Message(t *testing.T) {
	cause := errors.New("disk full")
	assert.Equal(t, "snapshot read: disk full", (&SnapshotIOError{Op: "read", Err: cause}).Error())
	assert.Equal(t, "snapshot insert k: disk full", (&SnapshotIOError{Op: "insert", Key: "k", Err: cause}).Error())
	assert.ErrorIs(t, storeErr("read", "", cause), ErrSnapshotIO)
}
