package document

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/inconshreveable/go-update"

	"github.com/oshokin/rootfs-sync/internal/config"
	"github.com/oshokin/rootfs-sync/internal/logger"
)

// ErrNotExist is returned when a document is missing.
var ErrNotExist = errors.New("document does not exist")

// Store reads and writes whole documents.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Check verifies that every path exists and is a regular file.
// All missing paths are reported together.
func (s *Store) Check(paths ...string) error {
	var errs []error

	for _, path := range paths {
		info, err := os.Stat(filepath.Clean(path))

		switch {
		case errors.Is(err, os.ErrNotExist):
			errs = append(errs, fmt.Errorf("%s: %w", path, ErrNotExist))
		case err != nil:
			errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
		case !info.Mode().IsRegular():
			errs = append(errs, fmt.Errorf("%s: not a regular file", path))
		}
	}

	return errors.Join(errs...)
}

// Read returns the content of path.
func (s *Store) Read(_ context.Context, path string) (string, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotExist)
		}

		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(contents), nil
}

// Write replaces path with content, keeping the file mode of an existing file.
func (s *Store) Write(ctx context.Context, path, content string) error {
	path = filepath.Clean(path)

	mode := os.FileMode(config.DefaultFilePermissions)

	info, err := os.Stat(path)

	switch {
	case err == nil:
		mode = info.Mode().Perm()
	case errors.Is(err, os.ErrNotExist):
		// go-update renames the old file aside, so the target must exist.
		if err = os.WriteFile(path, nil, mode); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}

	data := []byte(content)
	checksum := sha256.Sum256(data)

	options := goupdate.Options{
		TargetPath: path,
		TargetMode: mode,
		Checksum:   checksum[:],
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			logger.ErrorKV(ctx, "Failed to restore document after a failed write",
				"path", path, "error", rollbackErr)
		}

		return fmt.Errorf("write %s: %w", path, err)
	}

	// The replacement is created under the process umask.
	if err = os.Chmod(path, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	logger.DebugKV(ctx, "Wrote document", "path", path, "bytes", len(data))

	return nil
}
