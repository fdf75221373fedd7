package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fscat/internal/catalog"
)

// DefaultModTime is the modification time given to mock entries unless set otherwise.
var DefaultModTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// MockFile represents a file or directory in the mock filesystem.
type MockFile struct {
	Size        int64
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Paths are absolute and use forward slashes.
type MockFilesystemManager struct {
	files      map[string]*MockFile
	unreadable map[string]bool
	skipped    map[string]error
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:      make(map[string]*MockFile),
		unreadable: make(map[string]bool),
		skipped:    make(map[string]error),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[filepath.Clean(path)] = &MockFile{
		ModTime:     DefaultModTime,
		IsDirectory: true,
	}
}

// AddFile adds a regular file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, size int64, modTime time.Time) {
	m.files[filepath.Clean(path)] = &MockFile{
		Size:    size,
		ModTime: modTime,
	}
}

// SetModTime changes the modification time of an existing entry.
func (m *MockFilesystemManager) SetModTime(path string, modTime time.Time) {
	if f, ok := m.files[filepath.Clean(path)]; ok {
		f.ModTime = modTime
	}
}

// SetSize changes the size of an existing file.
func (m *MockFilesystemManager) SetSize(path string, size int64) {
	if f, ok := m.files[filepath.Clean(path)]; ok {
		f.Size = size
	}
}

// SetUnreadable makes ReadDir fail for path.
func (m *MockFilesystemManager) SetUnreadable(path string) {
	m.unreadable[filepath.Clean(path)] = true
}

// AddSkipped makes ReadDir of the parent report path as a skipped entry.
func (m *MockFilesystemManager) AddSkipped(path string, err error) {
	m.skipped[filepath.Clean(path)] = err
}

// Remove deletes path and everything below it.
func (m *MockFilesystemManager) Remove(path string) {
	path = filepath.Clean(path)
	prefix := path + "/"
	for p := range m.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*catalog.Path, error) {
	absPath := filepath.Clean(rawPath)
	if !filepath.IsAbs(absPath) {
		return nil, fmt.Errorf("mock filesystem needs absolute paths: %s", rawPath)
	}
	entry, err := m.Stat(absPath)
	if err != nil {
		return nil, err
	}
	return catalog.NewPath(absPath, entry), nil
}

func (m *MockFilesystemManager) Stat(path string) (*catalog.FsEntry, error) {
	path = filepath.Clean(path)
	file, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, os.ErrNotExist)
	}
	return toEntry(path, file), nil
}

// ReadDir lists children sorted by name.
func (m *MockFilesystemManager) ReadDir(path string) (*catalog.DirListing, error) {
	path = filepath.Clean(path)
	dir, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("reading %s: %w", path, os.ErrNotExist)
	}
	if !dir.IsDirectory {
		return nil, fmt.Errorf("reading %s: %w", path, catalog.ErrNotADirectory)
	}
	if m.unreadable[path] {
		return nil, fmt.Errorf("reading %s: %w", path, os.ErrPermission)
	}

	var names []string
	for p := range m.files {
		if p != path && filepath.Dir(p) == path {
			names = append(names, p)
		}
	}
	sort.Strings(names)

	listing := &catalog.DirListing{}
	for _, p := range names {
		if err, skip := m.skipped[p]; skip {
			listing.Skipped = append(listing.Skipped, &catalog.SkippedEntry{
				Name: filepath.Base(p),
				Path: p,
				Err:  err,
			})
			continue
		}
		listing.Entries = append(listing.Entries, toEntry(p, m.files[p]))
	}
	return listing, nil
}

func toEntry(path string, f *MockFile) *catalog.FsEntry {
	e := &catalog.FsEntry{
		Name:    filepath.Base(path),
		ModTime: f.ModTime,
		IsDir:   f.IsDirectory,
	}
	if !f.IsDirectory {
		e.Size = f.Size
	}
	return e
}

// Compile-time check
var _ catalog.FilesystemManager = (*MockFilesystemManager)(nil)
