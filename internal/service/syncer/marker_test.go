package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// deadPID is above any Linux pid_max, so no such process exists.
const deadPID = 2147483646

func pidString(pid int) string {
	return strconv.Itoa(pid) + "\n"
}

// TestAcquireLock_CreateAndRelease writes our pid and removes the marker.
func TestAcquireLock_CreateAndRelease(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := acquireLock(context.Background(), path, time.Hour)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, pidString(os.Getpid()), string(contents))

	_, err = acquireLock(context.Background(), path, time.Hour)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	lock.Release(context.Background())

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestAcquireLock_Stale reclaims markers of dead, unparsable or expired holders.
func TestAcquireLock_Stale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		age      time.Duration
	}{
		{name: "dead process", contents: pidString(deadPID)},
		{name: "garbage", contents: "not a pid"},
		{name: "expired", contents: pidString(os.Getpid()), age: 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".lock")
			require.NoError(t, os.WriteFile(path, []byte(tt.contents), 0o600))

			if tt.age > 0 {
				old := time.Now().Add(-tt.age)
				require.NoError(t, os.Chtimes(path, old, old))
			}

			lock, err := acquireLock(context.Background(), path, time.Hour)
			require.NoError(t, err)

			contents, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, pidString(os.Getpid()), string(contents))

			lock.Release(context.Background())
		})
	}
}

// TestRunLock_ReleaseKeepsForeignMarker does not remove a marker taken over by another run.
func TestRunLock_ReleaseKeepsForeignMarker(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := acquireLock(context.Background(), path, time.Hour)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(pidString(deadPID)), 0o600))

	lock.Release(context.Background())

	_, err = os.Stat(path)
	require.NoError(t, err)
}
