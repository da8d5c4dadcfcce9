package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"plant-backend/internal/models"

	"go.etcd.io/bbolt"
)

const boltBucketPlants = "plants" // key: plant id -> Plant JSON

// Bolt stores each plant as one JSON document in a bbolt bucket. bbolt runs a
// single writer at a time, so read-modify-write appends cannot lose entries.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (creating if needed) the bbolt file at path.
func NewBolt(path string) (*Bolt, error) {
	if path == "" {
		path = "plants.bolt"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketPlants))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Driver() Driver { return DriverBolt }

func (b *Bolt) List(_ context.Context) ([]models.Plant, error) {
	plants := []models.Plant{}

	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketPlants)).ForEach(func(_, v []byte) error {
			var p models.Plant
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			plants = append(plants, p)

			return nil
		})
	})
	if err != nil {
		return nil, storageErr("list", err)
	}

	sortNewestFirst(plants)

	return plants, nil
}

func (b *Bolt) Get(_ context.Context, id string) (models.Plant, error) {
	var (
		p     models.Plant
		found bool
	)

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketPlants)).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true

		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	if !found {
		return models.Plant{}, ErrNotFound
	}

	return p, nil
}

func (b *Bolt) Create(_ context.Context, name, imageURL string) (models.Plant, error) {
	name, err := validateCreate(name, imageURL)
	if err != nil {
		return models.Plant{}, err
	}
	p := newPlant(name, imageURL)

	data, err := json.Marshal(&p)
	if err != nil {
		return models.Plant{}, storageErr("create", err)
	}

	if err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketPlants)).Put([]byte(p.ID), data)
	}); err != nil {
		return models.Plant{}, storageErr("create", err)
	}

	return p, nil
}

func (b *Bolt) AppendImage(_ context.Context, id, imageURL string) (models.Plant, error) {
	if err := validateImage(imageURL); err != nil {
		return models.Plant{}, err
	}

	var (
		p     models.Plant
		found bool
	)

	err := b.db.Update(func(tx *bbolt.Tx) error {
		plants := tx.Bucket([]byte(boltBucketPlants))
		data := plants.Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true

		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		p.Images = append(p.Images, models.ImageEntry{ImageURL: imageURL, UploadDate: now()})

		updated, err := json.Marshal(&p)
		if err != nil {
			return err
		}

		return plants.Put([]byte(id), updated)
	})
	if err != nil {
		return models.Plant{}, storageErr("append image", err)
	}
	if !found {
		return models.Plant{}, ErrNotFound
	}

	return p, nil
}

func (b *Bolt) Ping(_ context.Context) error {
	return storageErr("ping", b.db.View(func(*bbolt.Tx) error { return nil }))
}

func (b *Bolt) Close() error { return b.db.Close() }
