package status

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/rootfs-sync/internal/config"
)

// statusKey is the single field of the status artifact.
const statusKey = "status"

// Record is the machine-readable outcome of a run.
type Record struct {
	// Status is a human-readable availability message.
	Status string
}

// Repository defines persistence operations for the status record.
type Repository interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
}

// FileRepository persists the record to a JSON file.
type FileRepository struct {
	// path is the filesystem location of the status file.
	path string
}

var (
	// ErrNotFound is returned when the status file does not exist yet.
	ErrNotFound = errors.New("status not found")
	// errMissingStatus is returned when the file has no string "status" field.
	errMissingStatus = errors.New("status field is missing or not a string")
)

// NewFileRepository creates a repository reading and writing path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the record from disk.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read status file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode status file: %w", err)
	}

	value, ok := document.GetFields()[statusKey].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, errMissingStatus
	}

	return &Record{Status: value.StringValue}, nil
}

// Save overwrites the status file with record.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	document := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			statusKey: structpb.NewStringValue(record.Status),
		},
	}

	data, err := protojson.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	// protojson spacing is randomised; normalise to two-space indentation.
	var indented bytes.Buffer
	if err = json.Indent(&indented, data, "", "  "); err != nil {
		return fmt.Errorf("format status: %w", err)
	}

	indented.WriteByte('\n')

	if err = os.WriteFile(r.path, indented.Bytes(), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}

	return nil
}
