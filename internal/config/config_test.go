package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		CatalogID: "test-catalog-abc",
		BaseDir:   "/home/user/.local/share/fscat",
		LogDir:    "/home/user/.local/share/fscat/log",
		Log:       LogConfig{Level: "debug", MaxSizeMB: 5, MaxBackups: 2},
		Database:  DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/fscat/db"},
		Crawl:     CrawlConfig{DefaultFilter: "photos"},
		Snapshot: SnapshotConfig{
			Type:       "s3",
			Name:       "offsite",
			S3Bucket:   "catalogs",
			S3Prefix:   "fscat",
			S3Region:   "eu-central-1",
			S3Endpoint: "http://localhost:9000",
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/fscat/keys/fscat.pub",
			PrivateKeyPath: "/home/user/.local/share/fscat/keys/fscat.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.CatalogID != original.CatalogID {
		t.Errorf("CatalogID = %q, want %q", got.CatalogID, original.CatalogID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Log != original.Log {
		t.Errorf("Log = %+v, want %+v", got.Log, original.Log)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if got.Crawl.DefaultFilter != "photos" {
		t.Errorf("Crawl.DefaultFilter = %q, want %q", got.Crawl.DefaultFilter, "photos")
	}
	if got.Snapshot != original.Snapshot {
		t.Errorf("Snapshot = %+v, want %+v", got.Snapshot, original.Snapshot)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
}

func TestManager_Read_InvalidTOML(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("catalog_id = ")); err == nil {
		t.Fatal("Read() expected error for invalid TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("cat-1", "/data/fscat")

	if cfg.CatalogID != "cat-1" {
		t.Errorf("CatalogID = %q, want %q", cfg.CatalogID, "cat-1")
	}
	if cfg.BaseDir != "/data/fscat" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/fscat")
	}
	if cfg.LogDir != "/data/fscat/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/fscat/log")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/fscat/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Crawl.DefaultFilter != "default" {
		t.Errorf("Crawl.DefaultFilter = %q, want %q", cfg.Crawl.DefaultFilter, "default")
	}
	if cfg.Snapshot.Type != "none" {
		t.Errorf("Snapshot.Type = %q, want %q", cfg.Snapshot.Type, "none")
	}
	if cfg.Encryption.PublicKeyPath != "/data/fscat/keys/fscat.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/fscat/keys/fscat.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/fscat/keys/fscat.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/fscat/keys/fscat.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "fscat.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fscat.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fscat.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.CatalogID != "read-test" {
			t.Errorf("CatalogID = %q, want %q", got.CatalogID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/fscat.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
