// Package lock holds cross-process locks backed by lock files.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrHeld is returned by Acquire when another holder kept the lock past the
// timeout.
var ErrHeld = errors.New("lock is held by another process")

const (
	retryInterval     = 100 * time.Millisecond
	defaultStaleAfter = 10 * time.Minute
)

// FileLock serializes work across processes sharing a lock directory.
type FileLock struct {
	dir        string
	staleAfter time.Duration
	logger     *slog.Logger
}

type Option func(*FileLock)

// WithStaleAfter sets how long a lock file may go untouched before another
// process may take it over. Holders created by Acquire refresh the file
// well within this age.
func WithStaleAfter(d time.Duration) Option {
	return func(fl *FileLock) {
		if d > 0 {
			fl.staleAfter = d
		}
	}
}

// NewFileLock returns a lock rooted at dir. An empty dir uses
// $TMPDIR/benflix-locks.
func NewFileLock(dir string, logger *slog.Logger, opts ...Option) *FileLock {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "benflix-locks")
	}
	fl := &FileLock{dir: dir, staleAfter: defaultStaleAfter, logger: logger}
	for _, opt := range opts {
		opt(fl)
	}
	return fl
}

// TryLock attempts to acquire the lock for key, retrying until timeout.
// It returns false without an error when the timeout passes. A lock file
// untouched for longer than the stale age is removed and taken over.
func (fl *FileLock) TryLock(ctx context.Context, key string, timeout time.Duration) (bool, error) {
	lockFile := fl.path(key)
	if err := os.MkdirAll(fl.dir, 0750); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		// #nosec G304 - lockFile is built from the lock dir and a cleaned key
		file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%d\n%d\n", time.Now().Unix(), os.Getpid())
			cerr := file.Close()
			if err := errors.Join(werr, cerr); err != nil {
				_ = os.Remove(lockFile)
				return false, fmt.Errorf("failed to write lock file: %w", err)
			}
			fl.logger.Debug("Acquired lock", slog.String("key", key), slog.String("file", lockFile))
			return true, nil
		}
		if !os.IsExist(err) {
			return false, fmt.Errorf("failed to create lock file: %w", err)
		}

		if fl.stale(lockFile) {
			fl.logger.Warn("Removing stale lock file", slog.String("file", lockFile))
			if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
				return false, fmt.Errorf("failed to remove stale lock file: %w", err)
			}
			continue
		}

		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Acquire is TryLock that reports a timeout as ErrHeld, returning the
// release func on success. Until release is called the lock file's mtime
// is refreshed so long-running holders never look stale.
func (fl *FileLock) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	ok, err := fl.TryLock(ctx, key, timeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrHeld)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go fl.heartbeat(key, done, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
			if err := fl.Unlock(key); err != nil {
				fl.logger.Error("Failed to release lock", slog.String("key", key), slog.Any("error", err))
			}
		})
	}, nil
}

func (fl *FileLock) heartbeat(key string, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	lockFile := fl.path(key)
	ticker := time.NewTicker(fl.staleAfter / 3)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			now := time.Now()
			if err := os.Chtimes(lockFile, now, now); err != nil {
				fl.logger.Warn("Failed to refresh lock file", slog.String("file", lockFile), slog.Any("error", err))
			}
		}
	}
}

func (fl *FileLock) Unlock(key string) error {
	lockFile := fl.path(key)
	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	fl.logger.Debug("Released lock", slog.String("key", key), slog.String("file", lockFile))
	return nil
}

func (fl *FileLock) path(key string) string {
	return filepath.Join(fl.dir, filepath.Base(filepath.Clean("/"+key))+".lock")
}

func (fl *FileLock) stale(lockFile string) bool {
	info, err := os.Stat(lockFile)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > fl.staleAfter
}
