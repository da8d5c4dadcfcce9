// Package blob stores uploaded image bytes under opaque keys. Keys are the
// generated upload names served at /uploads/<key>.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver identifies a concrete blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("blob not found")

// ErrExists is returned by Put when the key is already taken.
var ErrExists = errors.New("blob already exists")

// Info describes a stored blob.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is the minimal S3-like surface image ingestion needs. Put is
// create-only and must not leave a readable partial object on failure.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Driver() Driver
}

// validKey rejects keys that could escape the store root. Generated upload
// names are flat, so separators are refused outright.
func validKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("empty key")
	case strings.Contains(key, ".."):
		return fmt.Errorf("invalid key contains '..'")
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("invalid key contains a path separator")
	}
	return nil
}
