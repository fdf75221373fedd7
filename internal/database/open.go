package database

import (
	"errors"
	"fmt"
	"os"

	"fscat/internal/catalog"
	"fscat/internal/database/migrations"
)

const memoryPath = ":memory:"

// OpenExisting opens a catalog that must already exist with a current schema.
func OpenExisting(path string) (*SQLiteDatabase, error) {
	if path != memoryPath {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", path, catalog.ErrNoDatabaseFile)
			}
			return nil, fmt.Errorf("checking database file: %w", err)
		}
	}
	return open(path)
}

// Create makes a new catalog at path. It refuses to touch an existing file.
func Create(path string) (*SQLiteDatabase, error) {
	if path != memoryPath {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%s: %w", path, catalog.ErrAlreadyExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking database file: %w", err)
		}
	}

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db.db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

// OpenOrCreate creates the catalog if path does not exist and otherwise
// opens it like OpenExisting.
func OpenOrCreate(path string) (*SQLiteDatabase, error) {
	if path == memoryPath {
		return Create(path)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Create(path)
	}
	return OpenExisting(path)
}

func open(path string) (*SQLiteDatabase, error) {
	db, err := NewSQLiteDatabase(path)
	if err != nil {
		return nil, err
	}
	if path == memoryPath {
		if err := migrations.MigrateUp(db.db); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing schema: %w", err)
		}
		return db, nil
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w: %v", path, catalog.ErrIncompatibleSchema, err)
	}
	return db, nil
}
