package catalog

import (
	"database/sql"
	"time"
)

// Table names accepted by MaxID.
const (
	TableDirEntries      = "dir_entries"
	TableCollections     = "collections"
	TableGlobPatterns    = "glob_patterns"
	TableGlobFilters     = "glob_filters"
	TableFilterToPattern = "glob_filter_to_pattern"
)

// DefaultFilterID is the id of the "default" filter seeded by the initial migration.
const DefaultFilterID int64 = 1

// Collection is a named, root-anchored catalogued subtree.
type Collection struct {
	ID           int64
	Name         string // unique across the catalog
	Path         string // normalized absolute path of the root
	RootID       int64  // DirEntry with IsDir = true
	GlobFilterID int64
}

// DirEntry is one filesystem object as it was at its last synchronization.
type DirEntry struct {
	ID       int64
	Name     string
	ModTime  int64 // nanoseconds since the Unix epoch
	SyncTime int64 // nanoseconds since the Unix epoch
	IsDir    bool
	Size     int64 // 0 for directories
}

// GlobPattern is a matching rule keyed by its literal text.
type GlobPattern struct {
	ID      int64
	Pattern string
}

// GlobFilter is a named, ordered collection of pattern references.
type GlobFilter struct {
	ID   int64
	Name string
}

// FilterToPattern places one pattern inside a filter.
// Position defines evaluation order; lower positions are evaluated first.
type FilterToPattern struct {
	ID        int64
	FilterID  int64
	PatternID int64
	Include   bool
	Position  int
}

// Operation is a recorded run of a catalog-mutating command.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Operation  string
	Parameters string
	Status     string
}
