// Package client drives the plant API from a user's point of view: a state
// controller, an HTTP implementation of the API and a live feed watcher.
package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"plant-backend/internal/models"
)

// API is the subset of the plant API the controller needs.
type API interface {
	List(ctx context.Context) ([]models.Plant, error)
	Create(ctx context.Context, name string, img Image) (models.Plant, error)
	AppendImage(ctx context.Context, id string, img Image) (models.Plant, error)
}

// File is an image to upload.
type File struct {
	Name    string
	Content []byte
}

// ReadFile loads a local image for upload.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &File{Name: filepath.Base(path), Content: b}, nil
}

// Image is either a URL or a file; the server prefers the file.
type Image struct {
	URL  string
	File *File
}

// Blank reports whether no usable image value is present.
func (i Image) Blank() bool {
	return i.File == nil && strings.TrimSpace(i.URL) == ""
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("plant api: status %d", e.Status)
	}
	return fmt.Sprintf("plant api: status %d: %s", e.Status, e.Msg)
}
