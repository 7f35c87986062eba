package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/adapter/linux/handlers"
	"github.com/velin-dev/velin/pkg/usermem"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// TestToErrno_FilesystemCodes tests the one-to-one mapping from typed
// filesystem error codes to errnos.
func TestToErrno_FilesystemCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want abi.Errno
	}{
		{"not found", vfserrors.NewNotFoundError("/x"), abi.ENOENT},
		{"access denied", vfserrors.NewAccessDeniedError("/x"), abi.EACCES},
		{"permission denied", vfserrors.NewPermissionDeniedError("/x"), abi.EPERM},
		{"already exists", vfserrors.NewAlreadyExistsError("/x"), abi.EEXIST},
		{"not empty", vfserrors.NewNotEmptyError("/x"), abi.ENOTEMPTY},
		{"is directory", vfserrors.NewIsDirectoryError("/x"), abi.EISDIR},
		{"not directory", vfserrors.NewNotDirectoryError("/x"), abi.ENOTDIR},
		{"invalid argument", vfserrors.NewInvalidArgumentError("bad"), abi.EINVAL},
		{"io error", vfserrors.NewIOError("/x", "disk on fire"), abi.EIO},
		{"no space", vfserrors.NewNoSpaceError("/x"), abi.ENOSPC},
		{"read only", vfserrors.NewReadOnlyError("/x"), abi.EROFS},
		{"not supported", vfserrors.NewNotSupportedError("symlink"), abi.EOPNOTSUPP},
		{"bad descriptor", vfserrors.NewBadDescriptorError(3), abi.EBADF},
		{"name too long", vfserrors.NewNameTooLongError("/x"), abi.ENAMETOOLONG},
		{"interrupted", &vfserrors.FSError{Code: vfserrors.ErrInterrupted, Message: "signal"}, abi.EINTR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handlers.ToErrno(tt.err, 100, "stat"))
		})
	}
}

// TestToErrno_WrappedErrors tests that wrapping does not defeat the
// mapping.
func TestToErrno_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("resolve target: %w", vfserrors.NewNotFoundError("/x"))
	assert.Equal(t, abi.ENOENT, handlers.ToErrno(wrapped, 100, "stat"))

	deeply := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", vfserrors.NewBadDescriptorError(9)))
	assert.Equal(t, abi.EBADF, handlers.ToErrno(deeply, 100, "fstat"))
}

// TestToErrno_ContextErrors tests that cancellation and deadline expiry
// both surface as EINTR.
func TestToErrno_ContextErrors(t *testing.T) {
	assert.Equal(t, abi.EINTR, handlers.ToErrno(context.Canceled, 100, "stat"))
	assert.Equal(t, abi.EINTR, handlers.ToErrno(context.DeadlineExceeded, 100, "stat"))
	assert.Equal(t, abi.EINTR,
		handlers.ToErrno(fmt.Errorf("open: %w", context.Canceled), 100, "stat"))
}

// TestToErrno_MemoryErrors tests the guest-memory failure mappings.
func TestToErrno_MemoryErrors(t *testing.T) {
	assert.Equal(t, abi.EFAULT, handlers.ToErrno(usermem.ErrBadAddress, 100, "stat"))
	assert.Equal(t, abi.EFAULT,
		handlers.ToErrno(fmt.Errorf("read path: %w", usermem.ErrBadAddress), 100, "stat"))
	assert.Equal(t, abi.ENAMETOOLONG, handlers.ToErrno(usermem.ErrTooLong, 100, "stat"))
}

// TestToErrno_UnknownErrors tests the catch-all: anything untyped maps
// to EIO.
func TestToErrno_UnknownErrors(t *testing.T) {
	assert.Equal(t, abi.EIO, handlers.ToErrno(errors.New("something odd"), 100, "stat"))

	unknownCode := &vfserrors.FSError{Code: vfserrors.ErrorCode(999), Message: "future code"}
	assert.Equal(t, abi.EIO, handlers.ToErrno(unknownCode, 100, "stat"))
}

// TestToErrno_Nil tests that no error maps to errno zero.
func TestToErrno_Nil(t *testing.T) {
	assert.Equal(t, abi.Errno(0), handlers.ToErrno(nil, 100, "stat"))
}
