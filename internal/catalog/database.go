package catalog

import "fscat/internal/globfilter"

// Database provides the catalog's relational storage.
// Read methods have no side effects. Multi-step writes run inside a Tx.
type Database interface {
	// Collection reads

	// ListCollections returns all collections ordered by name.
	ListCollections() ([]*Collection, error)

	// CollectionsByPath returns collections whose stored path equals path.
	CollectionsByPath(path string) ([]*Collection, error)

	// CollectionByName returns the named collection, or nil if there is none.
	CollectionByName(name string) (*Collection, error)

	// DirEntry reads

	// DirEntryByID returns the entry with the given id, or nil if there is none.
	DirEntryByID(id int64) (*DirEntry, error)

	// ListDirEntries returns the immediate children of a directory ordered by
	// name, directories before files on equal names.
	ListDirEntries(parentID int64) ([]*DirEntry, error)

	// MaxID returns the largest id used in table, or 0 if the table is empty.
	MaxID(table string) (int64, error)

	// Glob filter reads

	ListGlobPatterns() ([]*GlobPattern, error)
	ListGlobFilters() ([]*GlobFilter, error)

	// GlobFilterByName returns the named filter, or nil if there is none.
	GlobFilterByName(name string) (*GlobFilter, error)

	// FilterPatterns returns a filter's pattern associations ordered by position.
	FilterPatterns(filterID int64) ([]*FilterToPattern, error)

	// GlobFilterByID resolves a filter into a compiled globfilter.Filter.
	// A reference to a missing pattern is an ErrIntegrity error.
	GlobFilterByID(filterID int64) (*globfilter.Filter, error)

	// Writes

	// Begin opens a transaction. The caller must Close it; Close rolls back
	// unless Commit or Rollback was called first.
	Begin() (Tx, error)

	// DeleteCollection deletes a collection and its entire entry subtree atomically.
	DeleteCollection(c *Collection) error

	// CreateGlobFilter stores a filter and its ordered rules atomically.
	CreateGlobFilter(name string, rules []globfilter.Rule) (*GlobFilter, error)

	// DeleteGlobFilter removes a filter that no collection references.
	DeleteGlobFilter(f *GlobFilter) error

	// Operation history

	CreateOperation(operation string, parameters string) (*Operation, error)
	FinishOperation(id int64, status string) error
	ListOperations(limit int) ([]*Operation, error)
	MaxOperationID() (int64, error)

	// Lifecycle

	// CheckMigrations verifies the schema is at the version this binary expects.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}

// Tx is a transaction guard over the catalog's write side.
// It is not re-entrant and must not be shared between goroutines.
type Tx interface {
	MaxID(table string) (int64, error)
	DirEntryByID(id int64) (*DirEntry, error)
	ListDirEntries(parentID int64) ([]*DirEntry, error)

	// CreateDirEntry inserts e with its caller-assigned id.
	CreateDirEntry(e *DirEntry) error

	// UpdateDirEntry stores new mod time, sync time and size for e.ID.
	UpdateDirEntry(e *DirEntry) error

	// MapToParent records that entryID lives in directory parentID.
	MapToParent(entryID, parentID int64) error

	// CreateCollection inserts a collection with id max(id)+1.
	CreateCollection(name, path string, rootID, filterID int64) (*Collection, error)

	// DeleteFile removes a file entry, its edges and its auxiliary rows.
	// It returns ErrNotAFile for directories.
	DeleteFile(id int64) error

	// DeleteDir removes a directory entry and its whole subtree.
	// It returns ErrNotADirectory for files.
	DeleteDir(id int64) error

	// DeleteEntry dispatches to DeleteFile or DeleteDir.
	DeleteEntry(id int64) error

	// DeleteCollection deletes the collection's root subtree and then its row.
	DeleteCollection(c *Collection) error

	Commit() error
	Rollback() error

	// Close rolls back unless the transaction was already completed.
	Close() error
}
