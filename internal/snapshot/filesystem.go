package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fscat/internal/catalog"
)

// FileSystemStore keeps snapshots as files under a root directory:
//
//	<root>/
//	  <catalogID>.db       (latest snapshot)
//	  <catalogID>.version  (operation id that produced it)
//
// The root is typically a mounted backup disk or a synced folder.
type FileSystemStore struct {
	name string
	root string
}

// NewFileSystemStore creates a store rooted at root, creating the directory.
func NewFileSystemStore(name, root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSystemStore{name: name, root: root}, nil
}

func (s *FileSystemStore) snapshotPath(catalogID string) string {
	return filepath.Join(s.root, catalogID+".db")
}

func (s *FileSystemStore) versionPath(catalogID string) string {
	return filepath.Join(s.root, catalogID+".version")
}

// Put writes the snapshot first and the version second, each atomically, so
// a reader never sees a version newer than the data.
func (s *FileSystemStore) Put(catalogID string, r io.Reader, size int64, version int64) error {
	if err := writeAtomic(s.snapshotPath(catalogID), r, size); err != nil {
		return err
	}
	v := strconv.FormatInt(version, 10)
	return writeAtomic(s.versionPath(catalogID), strings.NewReader(v), int64(len(v)))
}

func (s *FileSystemStore) Get(catalogID string, w io.Writer) error {
	f, err := os.Open(s.snapshotPath(catalogID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("snapshot of catalog %s: %w", catalogID, catalog.ErrNotFound)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// Version returns 0 if no version file exists.
func (s *FileSystemStore) Version(catalogID string) (int64, error) {
	data, err := os.ReadFile(s.versionPath(catalogID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the root is an accessible directory.
func (s *FileSystemStore) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("snapshot root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot root is not a directory: %s", s.root)
	}
	return nil
}

// writeAtomic writes r to destPath through a temp file and a rename.
func writeAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

// Compile-time check that FileSystemStore implements catalog.SnapshotStore interface
var _ catalog.SnapshotStore = (*FileSystemStore)(nil)
