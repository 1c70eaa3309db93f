package keeper

import (
	"errors"
	"io/fs"
	"os"

	"github.com/aweris/keeper/internal/store"
)

var (
	// ErrNotFound: the key is absent, or it expired and was evicted by the
	// lookup.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidData: the entry file was corrupt. It has been deleted.
	ErrInvalidData = store.ErrInvalidData
	// ErrWorkerClosed: the keeper is shutting down or stopped and the
	// operation was not run.
	ErrWorkerClosed = errors.New("keeper: worker closed")
	// ErrLockAcquisition: Open could not take the cache root's process lock.
	ErrLockAcquisition = errors.New("keeper: cannot acquire cache lock")
)

// IsIO reports whether err is a filesystem failure passed through from an
// operation: a *fs.PathError, *os.LinkError or *os.SyscallError that is not
// one of the keeper's own error kinds.
func IsIO(err error) bool {
	if err == nil {
		return false
	}
	for _, known := range []error{
		ErrNotFound,
		ErrInvalidData,
		ErrWorkerClosed,
		ErrLockAcquisition,
	} {
		if errors.Is(err, known) {
			return false
		}
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var sysErr *os.SyscallError
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &sysErr)
}
