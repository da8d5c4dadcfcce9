// Package store persists plant records. Every driver honours the same
// contract: plants are listed newest first, image lists are append-only and
// concurrent appends to one plant are never lost.
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"plant-backend/internal/models"

	"github.com/google/uuid"
)

// Driver identifies a concrete plant store implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // process memory (tests, demos)
	DriverPostgres Driver = "postgres" // PostgreSQL via pgx (default)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverBolt     Driver = "bolt"     // embedded bbolt file
	DriverMongo    Driver = "mongo"    // MongoDB collection
)

// PlantStore is the persistence contract for plants.
type PlantStore interface {
	List(ctx context.Context) ([]models.Plant, error)
	Get(ctx context.Context, id string) (models.Plant, error)
	Create(ctx context.Context, name, imageURL string) (models.Plant, error)
	AppendImage(ctx context.Context, id, imageURL string) (models.Plant, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

// now is the timestamp source for createdAt and uploadDate. Microsecond
// precision keeps values identical after a round trip through Postgres.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// newID returns a time-ordered identifier, so sorting by id breaks createdAt ties
// in insertion order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// validateCreate returns the trimmed name or a ValidationError naming every
// missing field.
func validateCreate(name, imageURL string) (string, error) {
	name = strings.TrimSpace(name)
	var missing []string
	if name == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(imageURL) == "" {
		missing = append(missing, FieldImageURL)
	}
	if len(missing) > 0 {
		return "", &ValidationError{Fields: missing}
	}
	return name, nil
}

func validateImage(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return &ValidationError{Fields: []string{FieldImageURL}}
	}
	return nil
}

// newPlant builds the initial record for a create call.
func newPlant(name, imageURL string) models.Plant {
	ts := now()
	return models.Plant{
		ID:        newID(),
		Name:      name,
		Images:    []models.ImageEntry{{ImageURL: imageURL, UploadDate: ts}},
		CreatedAt: ts,
	}
}

// sortNewestFirst orders plants by createdAt descending, newest id first on ties.
func sortNewestFirst(plants []models.Plant) {
	sort.SliceStable(plants, func(i, j int) bool {
		a, b := plants[i], plants[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
