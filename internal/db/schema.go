package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Images live in their own table so an append is a single INSERT and two
// concurrent appends can never overwrite each other.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS plants (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plant_images (
		seq         BIGSERIAL PRIMARY KEY,
		plant_id    TEXT NOT NULL REFERENCES plants(id),
		image_url   TEXT NOT NULL,
		upload_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS plant_images_plant_seq_idx ON plant_images (plant_id, seq)`,
	`CREATE INDEX IF NOT EXISTS plants_created_at_idx ON plants (created_at DESC, id DESC)`,
}

// Migrate creates the plant tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
