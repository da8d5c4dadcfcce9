package blob

import (
	"context"
	"fmt"
)

// Config selects a blob backend.
//
//	Driver: fs|s3|memory (default fs)
//	Dir:    upload directory when Driver=fs (default ./uploads)
//	S3:     bucket settings when Driver=s3
type Config struct {
	Driver Driver
	Dir    string
	S3     S3Config
}

// Open returns the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFS(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
