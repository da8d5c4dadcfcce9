package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"plant-backend/internal/blob"
	"plant-backend/internal/metrics"
	"plant-backend/internal/models"
	"plant-backend/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PlantEvent
}

func (r *recordingPublisher) Publish(evt models.PlantEvent) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// brokenStore fails every write with a storage error.
type brokenStore struct {
	*store.Memory
}

func (b brokenStore) Create(context.Context, string, string) (models.Plant, error) {
	return models.Plant{}, &store.StorageError{Op: "create", Err: errors.New("disk full")}
}

func (b brokenStore) AppendImage(context.Context, string, string) (models.Plant, error) {
	return models.Plant{}, &store.StorageError{Op: "append image", Err: errors.New("disk full")}
}

func newService(st store.PlantStore) (*PlantService, *blob.Memory, *recordingPublisher, *metrics.Metrics) {
	blobs := blob.NewMemory()
	m := metrics.New()
	svc := NewPlantService(st, NewIngestor(blobs, "", m), m)
	pub := &recordingPublisher{}
	svc.SetPublisher(pub)
	return svc, blobs, pub, m
}

func upload(name, body string) *Upload {
	return &Upload{Filename: name, ContentType: "image/jpeg", Body: strings.NewReader(body)}
}

func TestPlantService_CreateAndAppend(t *testing.T) {
	ctx := context.Background()
	svc, _, pub, m := newService(store.NewMemory())

	p, err := svc.Create(ctx, "Tomato", ImageInput{URL: "http://x/1.jpg"})
	require.NoError(t, err)
	require.Len(t, p.Images, 1)

	p, err = svc.AppendImage(ctx, p.ID, ImageInput{URL: "http://x/2.jpg"})
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "http://x/2.jpg", p.Images[1].ImageURL)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Images, 2)

	require.Len(t, pub.events, 2)
	assert.Equal(t, models.EventPlantCreated, pub.events[0].Event)
	assert.Equal(t, models.EventImageAdded, pub.events[1].Event)
	assert.Len(t, pub.events[1].Plant.Images, 2)

	expected := `
# HELP plant_monitor_plants_created_total Total number of plants created.
# TYPE plant_monitor_plants_created_total counter
plant_monitor_plants_created_total 1
# HELP plant_monitor_plants_images_stored_total Total number of image entries stored, by source.
# TYPE plant_monitor_plants_images_stored_total counter
plant_monitor_plants_images_stored_total{source="url"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"plant_monitor_plants_created_total", "plant_monitor_plants_images_stored_total"))
}

func TestPlantService_CreateValidationNeverWrites(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc, blobs, pub, _ := newService(st)

	_, err := svc.Create(ctx, "  ", ImageInput{File: upload("a.jpg", "x")})
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{store.FieldName}, verr.Fields)

	_, err = svc.Create(ctx, "", ImageInput{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{store.FieldName, store.FieldImage}, verr.Fields)

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, blobs.Keys())
	assert.Empty(t, pub.events)
}

func TestPlantService_UploadPrecedence(t *testing.T) {
	ctx := context.Background()
	svc, blobs, _, _ := newService(store.NewMemory())

	p, err := svc.Create(ctx, "Basil", ImageInput{URL: "http://x/ignored.jpg", File: upload("basil.jpg", "img")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.Images[0].ImageURL, UploadsPrefix))
	assert.NotEqual(t, "http://x/ignored.jpg", p.Images[0].ImageURL)

	p, err = svc.AppendImage(ctx, p.ID, ImageInput{URL: "http://x/ignored2.jpg", File: upload("week2.jpg", "img2")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.Images[1].ImageURL, UploadsPrefix))
	assert.Len(t, blobs.Keys(), 2)
}

func TestPlantService_AppendUnknownPlantWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, blobs, pub, _ := newService(store.NewMemory())

	_, err := svc.AppendImage(ctx, "doesnotexist", ImageInput{File: upload("a.jpg", "x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, blobs.Keys())
	assert.Empty(t, pub.events)

	_, err = svc.AppendImage(ctx, "doesnotexist", ImageInput{})
	assert.True(t, store.IsValidation(err))
}

func TestPlantService_StoreFailureRemovesUpload(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	existing, err := mem.Create(ctx, "Tomato", "http://x/1.jpg")
	require.NoError(t, err)

	svc, blobs, pub, _ := newService(brokenStore{Memory: mem})

	_, err = svc.Create(ctx, "Pepper", ImageInput{File: upload("p.jpg", "x")})
	assert.True(t, store.IsStorage(err))
	assert.Empty(t, blobs.Keys())

	_, err = svc.AppendImage(ctx, existing.ID, ImageInput{File: upload("t.jpg", "x")})
	assert.True(t, store.IsStorage(err))
	assert.Empty(t, blobs.Keys())
	assert.Empty(t, pub.events)

	got, err := mem.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 1)
}

func TestPlantService_WithoutPublisher(t *testing.T) {
	svc := NewPlantService(store.NewMemory(), NewIngestor(blob.NewMemory(), "", nil), nil)
	_, err := svc.Create(context.Background(), "Mint", ImageInput{URL: "http://x/m.jpg"})
	assert.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
}
