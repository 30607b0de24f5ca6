// Package lock implements the per-project advisory file lock described in
// §5: exclusive, acquired with a timeout, released on Unlock. It guards the
// read-modify-write of a project file against concurrent writers (segment
// audio updates during tts, timeline edits via the live editor).
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
)

// FileLock holds an exclusive advisory lock (flock(2)) on a sidecar
// "<project>.lock" file next to the project file itself. The lock file is
// never removed — only unlocked — so a second acquirer always has a file to
// flock rather than racing its creation.
type FileLock struct {
	path string
	file *os.File
}

// Acquire blocks until the lock is held or timeout elapses, whichever comes
// first; on timeout it returns ErrorKind.Busy per §5/§7.
func Acquire(ctx context.Context, projectPath string, timeout time.Duration) (*FileLock, error) {
	lockPath := projectPath + ".lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, rerrors.InternalError(fmt.Errorf("open lock file %s: %w", lockPath, err))
	}

	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond

	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &FileLock{path: lockPath, file: f}, nil
		}

		if time.Now().After(deadline) {
			f.Close()
			return nil, rerrors.Busy(filepath.Base(projectPath))
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, rerrors.Busy(filepath.Base(projectPath))
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// Unlock releases the flock and closes the underlying file descriptor. It
// is a no-op on a nil receiver so callers can defer it unconditionally
// after a failed Acquire.
func (l *FileLock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	return closeErr
}
