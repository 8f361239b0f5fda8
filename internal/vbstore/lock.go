package vbstore

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// indexLock serialises writes to index.toml with an advisory flock on a
// sidecar file. No dedicated file-locking library appears anywhere in the
// example corpus, so this is built directly on golang.org/x/sys/unix -
// already an indirect dependency - rather than a fabricated wrapper.
type indexLock struct {
	file *os.File
}

// lockPollInterval bounds how often a contended lock is retried.
const lockPollInterval = 20 * time.Millisecond

// acquireIndexLock blocks (polling) until it holds an exclusive lock on
// path, or ctx is done first, in which case it returns an
// IndexLockContended StorageError.
func acquireIndexLock(ctx context.Context, path string) (*indexLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, &vberrors.StorageError{
			Kind:   vberrors.WriteFailed,
			Detail: "opening index lock file: " + err.Error(),
		}
	}

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &indexLock{file: f}, nil
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, &vberrors.StorageError{
				Kind:   vberrors.IndexLockContended,
				Detail: "timed out waiting for index.toml.lock",
				Hint:   "another vibesafe process is writing the index; retry shortly",
			}
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *indexLock) release() error {
	defer l.file.Close()
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}
