package testutil

import (
	"fscat/internal/snapshot"
)

// NewTestSnapshotStore creates an in-memory snapshot store.
func NewTestSnapshotStore() *snapshot.MemoryStore {
	return snapshot.NewMemoryStore("test")
}
