package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fscat/internal/catalog"
	"fscat/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewDatabaseFromConfig(cfg, "cat-123", false)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, err := got.GlobFilterByName("default"); err != nil {
			t.Errorf("memory database not migrated: %v", err)
		}
	})

	t.Run("sqlite database is created", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(t.TempDir(), "db"),
		}
		got, err := NewDatabaseFromConfig(cfg, "cat-123", true)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		got.Close()

		if _, err := os.Stat(DatabasePath(cfg, "cat-123")); err != nil {
			t.Errorf("database file not created: %v", err)
		}

		again, err := NewDatabaseFromConfig(cfg, "cat-123", false)
		if err != nil {
			t.Fatalf("reopening existing database: %v", err)
		}
		again.Close()
	})

	t.Run("sqlite database must exist without create", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite", DataDir: t.TempDir()}
		got, err := NewDatabaseFromConfig(cfg, "cat-123", false)
		if !errors.Is(err, catalog.ErrNoDatabaseFile) {
			t.Errorf("NewDatabaseFromConfig() error = %v, want ErrNoDatabaseFile", err)
		}
		if got != nil {
			t.Errorf("NewDatabaseFromConfig() = %v, want nil interface", got)
		}
	})

	t.Run("sqlite without data dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		if _, err := NewDatabaseFromConfig(cfg, "cat-123", true); err == nil {
			t.Error("NewDatabaseFromConfig() expected error")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "postgres"}
		if _, err := NewDatabaseFromConfig(cfg, "cat-123", true); err == nil {
			t.Error("NewDatabaseFromConfig() expected error")
		}
	})
}

func TestDatabasePath(t *testing.T) {
	cfg := config.DatabaseConfig{Type: "sqlite", DataDir: "/var/lib/fscat"}
	if got, want := DatabasePath(cfg, "abc"), "/var/lib/fscat/abc.db"; got != want {
		t.Errorf("DatabasePath() = %q, want %q", got, want)
	}
}
