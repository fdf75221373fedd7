package snapshot

import (
	"context"
	"fmt"
	"os"

	"fscat/internal/catalog"
	"fscat/internal/config"
)

// Environment variables holding static S3 credentials. Credentials stay
// out of the config file.
const (
	EnvS3AccessKeyID     = "FSCAT_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "FSCAT_S3_SECRET_ACCESS_KEY"
)

// NewStoreFromConfig creates a SnapshotStore based on the snapshot config type.
// It returns nil when snapshots are disabled.
func NewStoreFromConfig(cfg config.SnapshotConfig) (catalog.SnapshotStore, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem snapshot store requires fs_root to be set")
		}
		s, err := NewFileSystemStore(cfg.Name, cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Store(context.Background(), cfg.Name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     os.Getenv(EnvS3AccessKeyID),
			SecretAccessKey: os.Getenv(EnvS3SecretAccessKey),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown snapshot type: %s", cfg.Type)
	}
}
