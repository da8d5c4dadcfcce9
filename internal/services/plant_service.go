package services

import (
	"context"
	"strings"

	"plant-backend/internal/metrics"
	"plant-backend/internal/models"
	"plant-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(evt models.PlantEvent)
}

// PlantService implements the plant API operations on top of a store and an
// image ingestor.
type PlantService struct {
	store   store.PlantStore
	ingest  *Ingestor
	metrics *metrics.Metrics
	events  Publisher
}

func NewPlantService(st store.PlantStore, ingest *Ingestor, m *metrics.Metrics) *PlantService {
	return &PlantService{store: st, ingest: ingest, metrics: m}
}

// SetPublisher attaches the live feed. Nil disables publishing.
func (s *PlantService) SetPublisher(p Publisher) { s.events = p }

// Ping checks that the store is reachable.
func (s *PlantService) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *PlantService) List(ctx context.Context) ([]models.Plant, error) {
	return s.store.List(ctx)
}

func (s *PlantService) Get(ctx context.Context, id string) (models.Plant, error) {
	return s.store.Get(ctx, id)
}

// Create validates every field before touching blob storage, so a rejected
// request never writes a file. A failed insert removes the upload again.
func (s *PlantService) Create(ctx context.Context, name string, img ImageInput) (models.Plant, error) {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, store.FieldName)
	}
	if img.Empty() {
		missing = append(missing, store.FieldImage)
	}
	if len(missing) > 0 {
		return models.Plant{}, &store.ValidationError{Fields: missing}
	}

	ingested, err := s.ingest.Ingest(ctx, img)
	if err != nil {
		return models.Plant{}, err
	}
	plant, err := s.store.Create(ctx, name, ingested.ImageURL)
	if err != nil {
		s.ingest.Discard(ctx, ingested)
		return models.Plant{}, err
	}

	s.metrics.PlantCreated()
	s.metrics.ImageStored(ingested.Source())
	log.Debug().Str("plant_id", plant.ID).Str("source", ingested.Source()).Msg("plant created")
	s.publish(models.EventPlantCreated, plant)
	return plant, nil
}

// AppendImage adds one image to an existing plant. Unknown ids are rejected
// before any upload is written.
func (s *PlantService) AppendImage(ctx context.Context, id string, img ImageInput) (models.Plant, error) {
	if img.Empty() {
		return models.Plant{}, &store.ValidationError{Fields: []string{store.FieldImage}}
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return models.Plant{}, err
	}

	ingested, err := s.ingest.Ingest(ctx, img)
	if err != nil {
		return models.Plant{}, err
	}
	plant, err := s.store.AppendImage(ctx, id, ingested.ImageURL)
	if err != nil {
		s.ingest.Discard(ctx, ingested)
		return models.Plant{}, err
	}

	s.metrics.ImageStored(ingested.Source())
	log.Debug().Str("plant_id", plant.ID).Int("images", len(plant.Images)).Msg("image appended")
	s.publish(models.EventImageAdded, plant)
	return plant, nil
}

func (s *PlantService) publish(event string, plant models.Plant) {
	if s.events == nil {
		return
	}
	p := plant.Clone()
	s.events.Publish(models.PlantEvent{Event: event, Plant: &p})
}
