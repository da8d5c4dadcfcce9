package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"plant-backend/internal/models"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite stores plants in an embedded database file using the same two-table
// layout as Postgres. Timestamps are unix nanoseconds.
type SQLite struct {
	db   *sql.DB
	path string
}

var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS plants (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plant_images (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		plant_id    TEXT NOT NULL REFERENCES plants(id),
		image_url   TEXT NOT NULL,
		upload_date INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS plant_images_plant_seq_idx ON plant_images (plant_id, seq)`,
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "plants.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serializes writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Driver() Driver { return DriverSQLite }

func (s *SQLite) List(ctx context.Context) ([]models.Plant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.created_at, i.image_url, i.upload_date
		FROM plants p
		JOIN plant_images i ON i.plant_id = p.id
		ORDER BY p.created_at DESC, p.id DESC, i.seq ASC`)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer func() { _ = rows.Close() }()

	plants := []models.Plant{}
	for rows.Next() {
		var (
			p                 models.Plant
			img               models.ImageEntry
			created, uploaded int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &created, &img.ImageURL, &uploaded); err != nil {
			return nil, storageErr("list", err)
		}
		p.CreatedAt = fromNanos(created)
		img.UploadDate = fromNanos(uploaded)
		plants = appendJoined(plants, p, img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", err)
	}
	return plants, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (models.Plant, error) {
	var (
		p       models.Plant
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM plants WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Plant{}, ErrNotFound
	}
	if err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	p.CreatedAt = fromNanos(created)

	rows, err := s.db.QueryContext(ctx, `SELECT image_url, upload_date FROM plant_images WHERE plant_id = ? ORDER BY seq`, id)
	if err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			img      models.ImageEntry
			uploaded int64
		)
		if err := rows.Scan(&img.ImageURL, &uploaded); err != nil {
			return models.Plant{}, storageErr("get", err)
		}
		img.UploadDate = fromNanos(uploaded)
		p.Images = append(p.Images, img)
	}
	if err := rows.Err(); err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	return p, nil
}

func (s *SQLite) Create(ctx context.Context, name, imageURL string) (models.Plant, error) {
	name, err := validateCreate(name, imageURL)
	if err != nil {
		return models.Plant{}, err
	}
	p := newPlant(name, imageURL)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO plants (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.UnixNano()); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO plant_images (plant_id, image_url, upload_date) VALUES (?, ?, ?)`,
		p.ID, imageURL, p.Images[0].UploadDate.UnixNano()); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	return p, nil
}

func (s *SQLite) AppendImage(ctx context.Context, id, imageURL string) (models.Plant, error) {
	if err := validateImage(imageURL); err != nil {
		return models.Plant{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO plant_images (plant_id, image_url, upload_date)
		SELECT id, ?, ? FROM plants WHERE id = ?`, imageURL, now().UnixNano(), id)
	if err != nil {
		return models.Plant{}, storageErr("append image", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Plant{}, storageErr("append image", err)
	}
	if n == 0 {
		return models.Plant{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLite) Ping(ctx context.Context) error {
	return storageErr("ping", s.db.PingContext(ctx))
}

func (s *SQLite) Close() error { return s.db.Close() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }
