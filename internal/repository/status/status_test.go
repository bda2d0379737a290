package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/rootfs-sync/internal/logger"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	record, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, record)
}

// TestFileRepository_SaveOverwrites writes a stable, indented document over any previous one.
func TestFileRepository_SaveOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"status": "old", "extra": true}`), 0o600))

	repo := NewFileRepository(path)
	require.NoError(t, repo.Save(context.Background(), &Record{Status: "Ubuntu 24.04 LTS noble-20240401 Available"}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"status\": \"Ubuntu 24.04 LTS noble-20240401 Available\"\n}\n", string(contents))

	record, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Ubuntu 24.04 LTS noble-20240401 Available", record.Status)
}

// TestFileRepository_LoadRejectsMalformed reports files without a string status.
func TestFileRepository_LoadRejectsMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"status": 1}`), 0o600))

	_, err := NewFileRepository(path).Load(context.Background())
	require.ErrorIs(t, err, errMissingStatus)
}

// TestMessage formats success and failure outcomes.
func TestMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ubuntu 24.04 LTS noble-20240401 Available", Message(true, "Ubuntu 24.04 LTS", "noble", "20240401"))
	require.Equal(t, Unavailable, Message(false, "Ubuntu 24.04 LTS", "noble", "20240401"))
}

var errDiskFull = errors.New("disk full")

// failingRepository fails every Save.
type failingRepository struct {
	saves int
}

func (f *failingRepository) Load(context.Context) (*Record, error) {
	return nil, ErrNotFound
}

func (f *failingRepository) Save(context.Context, *Record) error {
	f.saves++

	return errDiskFull
}

// TestReporter_SwallowsSaveErrors logs a failed save without panicking or retrying.
func TestReporter_SwallowsSaveErrors(t *testing.T) {
	t.Parallel()

	repo := new(failingRepository)
	NewReporter(repo).Report(context.Background(), true, "Ubuntu 24.04 LTS", "noble", "20240401")

	require.Equal(t, 1, repo.saves)
}

// TestReporter_WritesFile stores the failure message.
func TestReporter_WritesFile(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "status.json"))
	NewReporter(repo).Report(context.Background(), false, "Ubuntu 24.04 LTS", "noble", "")

	record, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, Unavailable, record.Status)
}

// TestReporter_LogsTransition reports the previous status next to the new one.
func TestReporter_LogsTransition(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	path := filepath.Join(t.TempDir(), "status.json")
	repo := NewFileRepository(path)
	reporter := NewReporter(repo)

	reporter.Report(ctx, false, "Ubuntu 24.04 LTS", "noble", "")
	reporter.Report(ctx, true, "Ubuntu 24.04 LTS", "noble", "20240401")
	reporter.Report(ctx, true, "Ubuntu 24.04 LTS", "noble", "20240401")

	entries := logs.All()
	require.Len(t, entries, 3)

	require.Equal(t, "Updated status", entries[0].Message)
	require.Empty(t, entries[0].ContextMap()["previous"])

	require.Equal(t, "Updated status", entries[1].Message)
	require.Equal(t, Unavailable, entries[1].ContextMap()["previous"])
	require.Equal(t, "Ubuntu 24.04 LTS noble-20240401 Available", entries[1].ContextMap()["status"])

	require.Equal(t, "Status unchanged", entries[2].Message)
}

// TestReporter_OverwritesUnreadable replaces a status file it cannot decode.
func TestReporter_OverwritesUnreadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	repo := NewFileRepository(path)
	NewReporter(repo).Report(context.Background(), false, "Ubuntu 24.04 LTS", "noble", "")

	record, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, Unavailable, record.Status)
}
