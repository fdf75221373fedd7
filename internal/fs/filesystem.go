package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fscat/internal/catalog"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Resolve makes rawPath absolute, resolves symlinks in it and reads the
// metadata of the object it names.
func (m *OSFilesystemManager) Resolve(rawPath string) (*catalog.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("resolving symlinks: %w", err)
	}

	entry, err := m.Stat(realPath)
	if err != nil {
		return nil, err
	}
	return catalog.NewPath(realPath, entry), nil
}

// Stat returns fresh metadata for a path. Symlinks are not followed.
func (m *OSFilesystemManager) Stat(path string) (*catalog.FsEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	return toFsEntry(path, info)
}

// ReadDir lists one directory level. Children that cannot be stat'ed, or
// are symlinks, devices, pipes or sockets, are reported as skipped.
func (m *OSFilesystemManager) ReadDir(path string) (*catalog.DirListing, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	listing := &catalog.DirListing{}
	for _, de := range entries {
		childPath := filepath.Join(path, de.Name())

		info, err := de.Info()
		if err != nil {
			listing.Skipped = append(listing.Skipped, &catalog.SkippedEntry{
				Name: de.Name(),
				Path: childPath,
				Err:  fmt.Errorf("stat: %w", err),
			})
			continue
		}

		fe, err := toFsEntry(childPath, info)
		if err != nil {
			listing.Skipped = append(listing.Skipped, &catalog.SkippedEntry{
				Name: de.Name(),
				Path: childPath,
				Err:  err,
			})
			continue
		}
		listing.Entries = append(listing.Entries, fe)
	}
	return listing, nil
}

func toFsEntry(path string, info fs.FileInfo) (*catalog.FsEntry, error) {
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return nil, fmt.Errorf("symlink %s: %w", path, catalog.ErrUnsupportedFileType)
	case mode&os.ModeDevice != 0:
		return nil, fmt.Errorf("device file %s: %w", path, catalog.ErrUnsupportedFileType)
	case mode&os.ModeNamedPipe != 0:
		return nil, fmt.Errorf("named pipe %s: %w", path, catalog.ErrUnsupportedFileType)
	case mode&os.ModeSocket != 0:
		return nil, fmt.Errorf("socket %s: %w", path, catalog.ErrUnsupportedFileType)
	case !mode.IsDir() && !mode.IsRegular():
		return nil, fmt.Errorf("%s: %w", path, catalog.ErrUnsupportedFileType)
	}

	fe := &catalog.FsEntry{
		Name:    info.Name(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
	if !fe.IsDir {
		fe.Size = info.Size()
	}
	return fe, nil
}

// Compile-time check that OSFilesystemManager implements catalog.FilesystemManager interface
var _ catalog.FilesystemManager = (*OSFilesystemManager)(nil)
