package catalog

import "time"

// FsEntry is a live filesystem observation of a file or directory.
type FsEntry struct {
	Name    string
	Size    int64 // 0 for directories
	ModTime time.Time
	IsDir   bool
}

// SkippedEntry is a directory child that could not be described.
type SkippedEntry struct {
	Name string
	Path string
	Err  error
}

// DirListing is the result of a single-level directory read.
// Children that could not be stat'ed, or are not regular files or
// directories, are reported in Skipped instead of failing the listing.
type DirListing struct {
	Entries []*FsEntry
	Skipped []*SkippedEntry
}

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve turns a raw path into its absolute, symlink-resolved form and
	// reads its metadata.
	Resolve(rawPath string) (*Path, error)

	// Stat returns fresh metadata for an absolute path.
	Stat(path string) (*FsEntry, error)

	// ReadDir lists the immediate children of a directory. It is not recursive.
	ReadDir(path string) (*DirListing, error)
}
