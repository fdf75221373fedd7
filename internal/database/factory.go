package database

import (
	"fmt"
	"os"
	"path/filepath"

	"fscat/internal/catalog"
	"fscat/internal/config"
)

// DatabasePath returns the catalog file path for a sqlite config.
func DatabasePath(cfg config.DatabaseConfig, catalogID string) string {
	return filepath.Join(cfg.DataDir, catalogID+".db")
}

// NewDatabaseFromConfig opens the catalog database described by cfg.
// With create set, a missing sqlite file is created and migrated;
// otherwise it must already exist.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, catalogID string, create bool) (catalog.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		path := DatabasePath(cfg, catalogID)
		if !create {
			return orNil(OpenExisting(path))
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return orNil(OpenOrCreate(path))
	case "memory":
		return orNil(Create(memoryPath))
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// orNil keeps a failed open from returning a non-nil interface holding a nil pointer.
func orNil(db *SQLiteDatabase, err error) (catalog.Database, error) {
	if err != nil {
		return nil, err
	}
	return db, nil
}
