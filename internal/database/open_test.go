package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fscat/internal/catalog"
)

func TestOpenExisting(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := OpenExisting(filepath.Join(t.TempDir(), "nope.db"))
		if !errors.Is(err, catalog.ErrNoDatabaseFile) {
			t.Errorf("OpenExisting() error = %v, want ErrNoDatabaseFile", err)
		}
	})

	t.Run("unmigrated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blank.db")
		raw, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		if _, err := raw.Exec("CREATE TABLE unrelated (x INTEGER)"); err != nil {
			t.Fatalf("creating table: %v", err)
		}
		raw.Close()

		_, err = OpenExisting(path)
		if !errors.Is(err, catalog.ErrIncompatibleSchema) {
			t.Errorf("OpenExisting() error = %v, want ErrIncompatibleSchema", err)
		}
	})

	t.Run("created catalog", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cat.db")
		db, err := Create(path)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		db.Close()

		db, err = OpenExisting(path)
		if err != nil {
			t.Fatalf("OpenExisting() error = %v", err)
		}
		defer db.Close()
		if db.Path() != path {
			t.Errorf("Path() = %q, want %q", db.Path(), path)
		}
	})
}

func TestCreate(t *testing.T) {
	t.Run("refuses existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cat.db")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		_, err := Create(path)
		if !errors.Is(err, catalog.ErrAlreadyExists) {
			t.Errorf("Create() error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("memory", func(t *testing.T) {
		db, err := Create(memoryPath)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		defer db.Close()
		if err := db.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

func TestOpenOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.db")

	db, err := OpenOrCreate(path)
	if err != nil {
		t.Fatalf("OpenOrCreate() first call error = %v", err)
	}
	db.Close()

	db, err = OpenOrCreate(path)
	if err != nil {
		t.Fatalf("OpenOrCreate() second call error = %v", err)
	}
	db.Close()
}
