package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// lockRetryDelay is how often a contended lock is retried.
const lockRetryDelay = 50 * time.Millisecond

// FileLock guards a snapshot against concurrent writers. Writers take it
// exclusively, loaders take it shared. Works on all platforms.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock returns the lock for the snapshot at snapshotPath. The lock
// file lives next to it as <snapshot>.lock.
func NewFileLock(snapshotPath string) *FileLock {
	lockPath := snapshotPath + ".lock"
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires the exclusive lock, waiting at most timeout.
func (l *FileLock) Lock(ctx context.Context, timeout time.Duration) error {
	return l.acquire(ctx, timeout, l.flock.TryLockContext)
}

// RLock acquires the shared lock, waiting at most timeout.
func (l *FileLock) RLock(ctx context.Context, timeout time.Duration) error {
	return l.acquire(ctx, timeout, l.flock.TryRLockContext)
}

func (l *FileLock) acquire(ctx context.Context, timeout time.Duration,
	try func(context.Context, time.Duration) (bool, error)) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return qaerrors.IOError("failed to create lock directory", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	acquired, err := try(ctx, lockRetryDelay)
	if err != nil || !acquired {
		return qaerrors.New(qaerrors.ErrCodeSnapshotLocked,
			fmt.Sprintf("snapshot lock %s is held by another process", l.path), err).
			WithSuggestion("Wait for the running build to finish")
	}

	l.locked = true
	return nil
}

// Unlock releases the lock. Calling it on an unlocked FileLock is a no-op.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}

	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return qaerrors.IOError("failed to release snapshot lock", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}
