package store

import (
	"errors"
	"fmt"
	"strings"
)

// Field names reported by ValidationError.
const (
	FieldName     = "name"
	FieldImageURL = "imageUrl"
	FieldImage    = "image"
)

// ErrNotFound is returned when no plant has the requested id.
var ErrNotFound = errors.New("plant not found")

// ValidationError reports blank or missing required input.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}

// Message is the client-facing description of the missing fields.
func (e *ValidationError) Message() string {
	var parts []string
	for _, f := range e.Fields {
		switch f {
		case FieldName:
			parts = append(parts, "plant name")
		case FieldImageURL, FieldImage:
			parts = append(parts, "an image URL or file")
		default:
			parts = append(parts, f)
		}
	}
	return "Please provide " + strings.Join(dedupe(parts), " and ")
}

// StorageError wraps a persistence or connectivity failure. Its text may
// contain driver internals and is logged, never sent to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
