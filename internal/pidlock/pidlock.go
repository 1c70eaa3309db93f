// Package pidlock holds a cache root exclusively for one process.
//
// The lock is an OS file lock on <root>/.lock taken through fslock, so it is
// released by the kernel if the owning process dies. The owner's pid is
// written into the file for humans; it plays no part in locking.
package pidlock

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/danjacques/gofslock/fslock"
)

// ErrHeld reports that another holder owns the lock.
var ErrHeld = errors.New("pidlock: lock is held by another process")

// Lock is an acquired process lock.
type Lock struct {
	path   string
	handle fslock.Handle
}

// Acquire takes the lock at path without waiting.
func Acquire(path string) (*Lock, error) {
	h, err := fslock.Lock(path)
	if err != nil {
		if errors.Is(err, fslock.ErrLockHeld) {
			return nil, fmt.Errorf("%w: %s", ErrHeld, path)
		}
		return nil, fmt.Errorf("acquire %s: %w", path, err)
	}

	writePID(h.LockFile())

	return &Lock{path: path, handle: h}, nil
}

// writePID records the owner's pid through the locked handle. The path must
// not be opened again while locked: fcntl locks (darwin, BSD) drop when any
// descriptor for the file closes. Best effort.
func writePID(f *os.File) {
	if f == nil {
		return
	}
	if err := f.Truncate(0); err != nil {
		return
	}
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}

func (l *Lock) Path() string { return l.path }

// Release unlocks. The lock file itself stays in place.
func (l *Lock) Release() error {
	if err := l.handle.Unlock(); err != nil {
		return fmt.Errorf("release %s: %w", l.path, err)
	}
	return nil
}
