package catalog

// CompareResult classifies how a live filesystem object differs from its
// catalogued entry.
type CompareResult int

const (
	// Same means no re-sync is needed.
	Same CompareResult = iota
	// TypeBecameDir means the catalog holds a file where a directory now is.
	TypeBecameDir
	// TypeBecameFile means the catalog holds a directory where a file now is.
	TypeBecameFile
	// ModTimeChanged means a directory's modification time moved.
	ModTimeChanged
	// ContentChanged means a file's modification time or size moved.
	ContentChanged
)

func (r CompareResult) String() string {
	switch r {
	case Same:
		return "same"
	case TypeBecameDir:
		return "type became dir"
	case TypeBecameFile:
		return "type became file"
	case ModTimeChanged:
		return "mod time changed"
	case ContentChanged:
		return "content changed"
	default:
		return "unknown"
	}
}

// TypeChanged reports whether the entry has to be replaced rather than updated.
func (r CompareResult) TypeChanged() bool {
	return r == TypeBecameDir || r == TypeBecameFile
}

// Compare classifies the drift between a catalogued entry and a live
// observation of the same object. Names are not compared: the caller pairs
// entries by name.
func Compare(entry *DirEntry, live *FsEntry) CompareResult {
	if entry.IsDir != live.IsDir {
		if live.IsDir {
			return TypeBecameDir
		}
		return TypeBecameFile
	}

	modTimeEqual := entry.ModTime == ToDBTime(live.ModTime)
	if entry.IsDir {
		if !modTimeEqual {
			return ModTimeChanged
		}
		return Same
	}

	if !modTimeEqual || entry.Size != live.Size {
		return ContentChanged
	}
	return Same
}
