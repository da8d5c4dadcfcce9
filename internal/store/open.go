package store

import (
	"context"
	"fmt"

	"plant-backend/internal/db"
)

// Config selects and parameterizes a driver.
type Config struct {
	Driver        Driver
	PostgresURL   string
	SQLitePath    string
	BoltPath      string
	MongoURI      string
	MongoDatabase string
}

// Open returns the PlantStore selected by cfg.Driver (postgres when empty).
func Open(ctx context.Context, cfg Config) (PlantStore, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		pool, err := db.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgres(pool), nil
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	case DriverBolt:
		return NewBolt(cfg.BoltPath)
	case DriverMongo:
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
