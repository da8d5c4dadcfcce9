package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"plant-backend/internal/blob"
	"plant-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }

func TestIngest_URLVerbatim(t *testing.T) {
	blobs := blob.NewMemory()
	ing := NewIngestor(blobs, "", nil)

	got, err := ing.Ingest(context.Background(), ImageInput{URL: "http://x/1.jpg?size=large"})
	require.NoError(t, err)
	assert.Equal(t, "http://x/1.jpg?size=large", got.ImageURL)
	assert.Empty(t, got.Key)
	assert.Equal(t, "url", got.Source())
	assert.Empty(t, blobs.Keys())
}

func TestIngest_FileWinsOverURL(t *testing.T) {
	blobs := blob.NewMemory()
	ing := NewIngestor(blobs, "", nil)
	ing.clock = fixedClock(time.Unix(0, 1700000000000000000))

	got, err := ing.Ingest(context.Background(), ImageInput{
		URL:  "http://x/ignored.jpg",
		File: &Upload{Filename: "day 1.jpg", ContentType: "image/jpeg", Body: strings.NewReader("bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000000000000-day_1.jpg", got.ImageURL)
	assert.Equal(t, "1700000000000000000-day_1.jpg", got.Key)
	assert.EqualValues(t, 5, got.Size)
	assert.Equal(t, "upload", got.Source())

	_, rc, err := blobs.Get(context.Background(), got.Key)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "bytes", string(b))
}

func TestIngest_CollisionGetsUniqueKey(t *testing.T) {
	blobs := blob.NewMemory()
	ing := NewIngestor(blobs, "", nil)
	ing.clock = fixedClock(time.Unix(0, 42))

	first, err := ing.Ingest(context.Background(), ImageInput{File: &Upload{Filename: "a.png", Body: strings.NewReader("1")}})
	require.NoError(t, err)
	second, err := ing.Ingest(context.Background(), ImageInput{File: &Upload{Filename: "a.png", Body: strings.NewReader("2")}})
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.True(t, strings.HasPrefix(second.Key, "42-"))
	assert.True(t, strings.HasSuffix(second.Key, "-a.png"))
	assert.Len(t, blobs.Keys(), 2)
}

func TestIngest_BaseURL(t *testing.T) {
	ing := NewIngestor(blob.NewMemory(), "https://plants.example.com/", nil)
	ing.clock = fixedClock(time.Unix(0, 7))

	got, err := ing.Ingest(context.Background(), ImageInput{File: &Upload{Filename: "leaf.jpg", Body: strings.NewReader("x")}})
	require.NoError(t, err)
	assert.Equal(t, "https://plants.example.com/uploads/7-leaf.jpg", got.ImageURL)
}

func TestIngest_NothingSupplied(t *testing.T) {
	ing := NewIngestor(blob.NewMemory(), "", nil)
	_, err := ing.Ingest(context.Background(), ImageInput{URL: "   "})

	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{store.FieldImage}, verr.Fields)
}

func TestIngest_Discard(t *testing.T) {
	blobs := blob.NewMemory()
	ing := NewIngestor(blobs, "", nil)
	ctx := context.Background()

	got, err := ing.Ingest(ctx, ImageInput{File: &Upload{Filename: "a.jpg", Body: strings.NewReader("x")}})
	require.NoError(t, err)
	ing.Discard(ctx, got)
	assert.Empty(t, blobs.Keys())

	// URL references own no blob
	ing.Discard(ctx, Ingested{ImageURL: "http://x/1.jpg"})
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"leaf.jpg":              "leaf.jpg",
		"../../etc/passwd":      "passwd",
		`C:\photos\tomato.png`:  "tomato.png",
		"my plant (1).jpeg":     "my_plant__1_.jpeg",
		"":                      "upload",
		"/":                     "upload",
		".hidden":               "hidden",
		"a..b.jpg":              "a_b.jpg",
		strings.Repeat("x", 150) + ".jpg": strings.Repeat("x", 96) + ".jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestUploadContentType(t *testing.T) {
	assert.Equal(t, "image/webp", uploadContentType("image/webp", "a.png"))
	assert.Equal(t, "image/png", uploadContentType("application/octet-stream", "a.png"))
	assert.Equal(t, "image/jpeg", uploadContentType("", "a.jpg"))
	assert.Equal(t, "application/octet-stream", uploadContentType("", "noext"))
}
