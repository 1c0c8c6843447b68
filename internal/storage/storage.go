// Package storage provides file storage for inspection photos, signature
// images and generated reports.
//
// Files are addressed by forward-slash keys relative to a base directory.
// Key helpers keep the directory layout in one place so the backup archive
// and the photo service agree on where things live.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage defines the interface for file storage operations.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists when the
	// key is taken and overwrite is disabled in opts.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// Walk calls fn for every stored object under prefix.
	Walk(ctx context.Context, prefix string, fn func(key string, info ObjectInfo) error) error
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// MaxSize is the maximum allowed size in bytes, 0 means no limit.
	// Oversized writes fail with ErrTooLarge.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Key prefixes for the fixed directory layout.
const (
	PhotoPrefix     = "photos"
	SignaturePrefix = "signatures"
	ReportPrefix    = "reports"
)

// PhotoKey generates a storage key for an inspection photo.
// Format: photos/{inspectionID}/{photoID}.{ext}
func PhotoKey(inspectionID, photoID, filename string) string {
	return fmt.Sprintf("%s/%s/%s%s", PhotoPrefix, inspectionID, photoID, filepath.Ext(filename))
}

// SignatureKey generates a storage key for an inspector's signature image.
// Format: signatures/{inspectorID}.{ext}
func SignatureKey(inspectorID, filename string) string {
	return fmt.Sprintf("%s/%s%s", SignaturePrefix, inspectorID, filepath.Ext(filename))
}

// ReportKey generates a storage key for a generated report file.
// Format: reports/{inspectionID}/{uuid}.{format}
func ReportKey(inspectionID, format string) string {
	return fmt.Sprintf("%s/%s/%s.%s", ReportPrefix, inspectionID, uuid.New(), format)
}
