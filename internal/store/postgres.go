package store

import (
	"context"
	"errors"

	"plant-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores plants in two tables: plants and plant_images.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. The schema must already be applied (db.Migrate).
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Driver() Driver { return DriverPostgres }

const pgListQuery = `
	SELECT p.id, p.name, p.created_at, i.image_url, i.upload_date
	FROM plants p
	JOIN plant_images i ON i.plant_id = p.id
	ORDER BY p.created_at DESC, p.id DESC, i.seq ASC`

func (s *Postgres) List(ctx context.Context) ([]models.Plant, error) {
	rows, err := s.pool.Query(ctx, pgListQuery)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	plants := []models.Plant{}
	for rows.Next() {
		var (
			p   models.Plant
			img models.ImageEntry
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &img.ImageURL, &img.UploadDate); err != nil {
			return nil, storageErr("list", err)
		}
		plants = appendJoined(plants, p, img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", err)
	}
	return plants, nil
}

func (s *Postgres) Get(ctx context.Context, id string) (models.Plant, error) {
	var p models.Plant
	err := s.pool.QueryRow(ctx, `SELECT id, name, created_at FROM plants WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Plant{}, ErrNotFound
	}
	if err != nil {
		return models.Plant{}, storageErr("get", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT image_url, upload_date FROM plant_images WHERE plant_id = $1 ORDER BY seq`, id)
	if err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img models.ImageEntry
		if err := rows.Scan(&img.ImageURL, &img.UploadDate); err != nil {
			return models.Plant{}, storageErr("get", err)
		}
		p.Images = append(p.Images, img)
	}
	if err := rows.Err(); err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	return p, nil
}

func (s *Postgres) Create(ctx context.Context, name, imageURL string) (models.Plant, error) {
	name, err := validateCreate(name, imageURL)
	if err != nil {
		return models.Plant{}, err
	}
	p := newPlant(name, imageURL)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO plants (id, name, created_at) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.CreatedAt); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO plant_images (plant_id, image_url, upload_date) VALUES ($1, $2, $3)`,
		p.ID, imageURL, p.Images[0].UploadDate); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	return p, nil
}

func (s *Postgres) AppendImage(ctx context.Context, id, imageURL string) (models.Plant, error) {
	if err := validateImage(imageURL); err != nil {
		return models.Plant{}, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO plant_images (plant_id, image_url, upload_date)
		SELECT id, $2, $3 FROM plants WHERE id = $1`, id, imageURL, now())
	if err != nil {
		return models.Plant{}, storageErr("append image", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Plant{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Postgres) Ping(ctx context.Context) error {
	return storageErr("ping", s.pool.Ping(ctx))
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// appendJoined folds one row of a plants/images join into the result, starting
// a new plant whenever the id changes.
func appendJoined(plants []models.Plant, p models.Plant, img models.ImageEntry) []models.Plant {
	if n := len(plants); n > 0 && plants[n-1].ID == p.ID {
		plants[n-1].Images = append(plants[n-1].Images, img)
		return plants
	}
	p.Images = []models.ImageEntry{img}
	return append(plants, p)
}
