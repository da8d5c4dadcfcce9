package app

import (
	"strings"

	"plant-backend/internal/blob"
	"plant-backend/internal/db"
	"plant-backend/internal/store"
	"plant-backend/internal/utils"
)

// Config is everything the server needs, read from the environment.
type Config struct {
	Port        string
	BaseURL     string
	BodyLimitMB int
	CORSOrigins string
	LogLevel    string
	LogFormat   string

	Store store.Config
	Blob  blob.Config
}

// LoadConfig reads the process environment. Call utils.LoadEnv first to pick
// up a .env file.
func LoadConfig() Config {
	connString := utils.GetEnv("DATABASE_URL", "")
	if connString == "" {
		// Fallback to individual vars
		connString = db.ConnString(
			utils.GetEnv("POSTGRES_USER", "postgres"),
			utils.GetEnv("POSTGRES_PASSWORD", "postgres"),
			utils.GetEnv("POSTGRES_HOST", "localhost"),
			utils.GetEnv("POSTGRES_PORT", "5432"),
			utils.GetEnv("POSTGRES_DB", "plantdb"),
		)
	}

	return Config{
		Port:        utils.GetEnv("PORT", "3001"),
		BaseURL:     utils.GetEnv("BASE_URL", ""),
		BodyLimitMB: utils.GetEnvInt("BODY_LIMIT_MB", 10),
		CORSOrigins: utils.GetEnv("CORS_ORIGINS", "*"),
		LogLevel:    utils.GetEnv("LOG_LEVEL", "info"),
		LogFormat:   utils.GetEnv("LOG_FORMAT", "console"),
		Store: store.Config{
			Driver:        store.Driver(strings.ToLower(utils.GetEnv("STORE_DRIVER", string(store.DriverPostgres)))),
			PostgresURL:   connString,
			SQLitePath:    utils.GetEnv("SQLITE_PATH", "data/plants.db"),
			BoltPath:      utils.GetEnv("BOLT_PATH", "data/plants.bolt"),
			MongoURI:      utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: utils.GetEnv("MONGO_DATABASE", "plant_monitor"),
		},
		Blob: blob.Config{
			Driver: blob.Driver(strings.ToLower(utils.GetEnv("BLOB_DRIVER", string(blob.DriverFilesystem)))),
			Dir:    utils.GetEnv("UPLOAD_DIR", "uploads"),
			S3: blob.S3Config{
				Bucket:          utils.GetEnv("S3_BUCKET", ""),
				Region:          utils.GetEnv("S3_REGION", "us-east-1"),
				Endpoint:        utils.GetEnv("S3_ENDPOINT", ""),
				AccessKeyID:     utils.GetEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: utils.GetEnv("S3_SECRET_ACCESS_KEY", ""),
				PathStyle:       utils.GetEnvBool("S3_PATH_STYLE", false),
			},
		},
	}
}

func (c Config) addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) bodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 10 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
