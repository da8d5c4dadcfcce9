package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"plant-backend/internal/blob"
	"plant-backend/internal/metrics"
	"plant-backend/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UploadsPrefix is the path uploaded images are served under.
const UploadsPrefix = "/uploads/"

const maxFilenameLen = 100

// Upload is a binary image received with a request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ImageInput carries the two ways a client can supply an image.
type ImageInput struct {
	URL  string
	File *Upload
}

// Empty reports whether neither a file nor a non-blank URL is present.
func (in ImageInput) Empty() bool {
	return in.File == nil && strings.TrimSpace(in.URL) == ""
}

// Ingested is a normalized image reference ready for the store.
type Ingested struct {
	ImageURL string
	Key      string // blob key; empty when the client supplied a URL
	Size     int64
}

// Source returns the metrics label for where the image came from.
func (i Ingested) Source() string {
	if i.Key != "" {
		return metrics.SourceUpload
	}
	return metrics.SourceURL
}

// Ingestor turns an ImageInput into a stored image reference.
type Ingestor struct {
	blobs   blob.Store
	baseURL string
	metrics *metrics.Metrics
	clock   func() time.Time
}

// NewIngestor writes uploads to blobs. baseURL, when set, is prepended to the
// returned upload paths.
func NewIngestor(blobs blob.Store, baseURL string, m *metrics.Metrics) *Ingestor {
	return &Ingestor{
		blobs:   blobs,
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: m,
		clock:   time.Now,
	}
}

// Ingest stores an uploaded file (which wins over any URL) or passes the URL
// through verbatim. The file is fully written before its path is returned.
func (i *Ingestor) Ingest(ctx context.Context, in ImageInput) (Ingested, error) {
	if in.File == nil {
		if strings.TrimSpace(in.URL) == "" {
			return Ingested{}, &store.ValidationError{Fields: []string{store.FieldImage}}
		}
		return Ingested{ImageURL: in.URL}, nil
	}

	name := sanitizeFilename(in.File.Filename)
	ct := uploadContentType(in.File.ContentType, name)
	key := fmt.Sprintf("%d-%s", i.clock().UnixNano(), name)
	info, err := i.blobs.Put(ctx, key, in.File.Body, ct)
	if errors.Is(err, blob.ErrExists) {
		// same nanosecond and filename; disambiguate once
		key = fmt.Sprintf("%d-%s-%s", i.clock().UnixNano(), uuid.NewString()[:8], name)
		info, err = i.blobs.Put(ctx, key, in.File.Body, ct)
	}
	if err != nil {
		return Ingested{}, &store.StorageError{Op: "write upload", Err: err}
	}
	i.metrics.UploadWritten(info.Size)

	return Ingested{ImageURL: i.baseURL + UploadsPrefix + key, Key: key, Size: info.Size}, nil
}

// Discard removes an upload whose reference never reached the store.
func (i *Ingestor) Discard(ctx context.Context, img Ingested) {
	if img.Key == "" {
		return
	}
	if err := i.blobs.Delete(ctx, img.Key); err != nil {
		log.Warn().Err(err).Str("key", img.Key).Msg("failed to remove orphaned upload")
	}
}

// uploadContentType prefers the declared type unless it is missing or the
// generic octet-stream, in which case the extension decides.
func uploadContentType(declared, name string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// sanitizeFilename keeps the base name of a client filename with anything
// outside [A-Za-z0-9._-] replaced, so it is safe as a flat blob key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	out = strings.ReplaceAll(out, "..", "_")
	if out == "" || out == "_" {
		out = "upload"
	}
	if len(out) > maxFilenameLen {
		out = out[len(out)-maxFilenameLen:]
	}
	return out
}
