package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/rootfs-sync/internal/config"
	"github.com/oshokin/rootfs-sync/internal/logger"
)

// markerLifetime is the age after which a lock marker is considered stale
// even when its process still seems to exist.
const markerLifetime = 30 * time.Minute

// ErrAlreadyRunning is returned when another live run holds the lock marker.
var ErrAlreadyRunning = errors.New("another sync is already running")

// runLock is a marker file holding the PID of the running sync.
type runLock struct {
	path string
	pid  int
}

// acquireLock creates the marker at path. A marker left by a dead process, or
// one older than lifetime, is reclaimed once.
func acquireLock(ctx context.Context, path string, lifetime time.Duration) (*runLock, error) {
	lock := &runLock{
		path: filepath.Clean(path),
		pid:  os.Getpid(),
	}

	err := lock.create()
	if err == nil {
		return lock, nil
	}

	if !errors.Is(err, fs.ErrExist) {
		return nil, err
	}

	holder, stale := inspectMarker(ctx, lock.path, lifetime)
	if !stale {
		return nil, fmt.Errorf("%w: pid %d holds %s", ErrAlreadyRunning, holder, lock.path)
	}

	logger.WarnKV(ctx, "Reclaiming stale lock marker", "path", lock.path, "pid", holder)

	if err = os.Remove(lock.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale lock marker: %w", err)
	}

	if err = lock.create(); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s was re-created", ErrAlreadyRunning, lock.path)
		}

		return nil, err
	}

	return lock, nil
}

func (l *runLock) create() error {
	marker, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}

		return fmt.Errorf("create lock marker: %w", err)
	}

	_, err = marker.WriteString(strconv.Itoa(l.pid) + "\n")
	if closeErr := marker.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(l.path)

		return fmt.Errorf("write lock marker: %w", err)
	}

	return nil
}

// Release removes the marker if it still belongs to this process.
func (l *runLock) Release(ctx context.Context) {
	if l == nil {
		return
	}

	contents, err := os.ReadFile(l.path)
	if err != nil {
		logger.WarnKV(ctx, "Lock marker disappeared", "path", l.path, "error", err)

		return
	}

	if pid, ok := parsePID(contents); !ok || pid != l.pid {
		logger.WarnKV(ctx, "Lock marker was taken over, leaving it in place", "path", l.path)

		return
	}

	if err = os.Remove(l.path); err != nil {
		logger.WarnKV(ctx, "Failed to remove lock marker", "path", l.path, "error", err)
	}
}

// inspectMarker returns the PID recorded at path and whether the marker may be
// reclaimed.
func inspectMarker(ctx context.Context, path string, lifetime time.Duration) (int, bool) {
	info, err := os.Stat(path)
	if err != nil {
		// Gone in the meantime.
		return 0, true
	}

	if time.Since(info.ModTime()) > lifetime {
		return 0, true
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, true
	}

	pid, ok := parsePID(contents)
	if !ok {
		logger.WarnKV(ctx, "Lock marker has no valid pid", "path", path)

		return 0, true
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		// Cannot tell, keep the marker.
		logger.WarnKV(ctx, "Failed to look up lock holder", "pid", pid, "error", err)

		return pid, false
	}

	return pid, process == nil
}

func parsePID(contents []byte) (int, bool) {
	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}
