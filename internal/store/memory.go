package store

import (
	"context"
	"sync"

	"plant-backend/internal/models"
)

// Memory keeps plants in process memory. Intended for tests and demos.
type Memory struct {
	mu     sync.RWMutex
	plants map[string]models.Plant
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{plants: make(map[string]models.Plant)}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) List(_ context.Context) ([]models.Plant, error) {
	m.mu.RLock()
	out := make([]models.Plant, 0, len(m.plants))
	for _, p := range m.plants {
		out = append(out, p.Clone())
	}
	m.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (models.Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plants[id]
	if !ok {
		return models.Plant{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) Create(_ context.Context, name, imageURL string) (models.Plant, error) {
	name, err := validateCreate(name, imageURL)
	if err != nil {
		return models.Plant{}, err
	}
	p := newPlant(name, imageURL)
	m.mu.Lock()
	m.plants[p.ID] = p
	m.mu.Unlock()
	return p.Clone(), nil
}

func (m *Memory) AppendImage(_ context.Context, id, imageURL string) (models.Plant, error) {
	if err := validateImage(imageURL); err != nil {
		return models.Plant{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plants[id]
	if !ok {
		return models.Plant{}, ErrNotFound
	}
	p = p.Clone()
	p.Images = append(p.Images, models.ImageEntry{ImageURL: imageURL, UploadDate: now()})
	m.plants[id] = p
	return p.Clone(), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
