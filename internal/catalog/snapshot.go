package catalog

import "io"

// SnapshotStore keeps copies of the catalog database off the local machine.
// Snapshots are keyed by catalog id and carry a version, which is the id of
// the operation that produced them.
type SnapshotStore interface {
	// Put stores a snapshot. size is the number of bytes that will be read from r.
	Put(catalogID string, r io.Reader, size int64, version int64) error

	// Get writes the latest snapshot for catalogID to w.
	Get(catalogID string, w io.Writer) error

	// Version returns the stored snapshot version, or 0 if there is none.
	Version(catalogID string) (int64, error)

	// ValidateSetup verifies that the store is accessible.
	ValidateSetup() error
}
