package catalog

// Path represents a canonical filesystem path with the metadata read
// when it was resolved. Path objects are created by FilesystemManager.Resolve.
type Path struct {
	absPath string
	entry   *FsEntry
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, entry *FsEntry) *Path {
	return &Path{
		absPath: absPath,
		entry:   entry,
	}
}

// String returns the absolute path as a string.
func (p *Path) String() string {
	return p.absPath
}

// IsDir returns true if this path points to a directory.
func (p *Path) IsDir() bool {
	return p.entry.IsDir
}

// Entry returns the metadata cached when the path was resolved.
func (p *Path) Entry() *FsEntry {
	return p.entry
}
