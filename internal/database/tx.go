package database

import (
	"context"
	"database/sql"
	"fmt"

	"fscat/internal/catalog"
)

// Transaction is the write side of the catalog. Every write happens inside
// one; nothing is visible to other readers until Commit. A Transaction that
// is closed without Commit or Rollback rolls back, so callers can
// `defer tx.Close()` and return early on any error.
type Transaction struct {
	tx       *sql.Tx
	queries  *Queries
	ctx      context.Context
	finished bool
}

// Commit makes the transaction's writes permanent.
func (t *Transaction) Commit() error {
	if t.finished {
		return catalog.ErrTxFinished
	}
	t.finished = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes.
func (t *Transaction) Rollback() error {
	if t.finished {
		return catalog.ErrTxFinished
	}
	t.finished = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// Close rolls back unless the transaction already finished. It is safe to
// call more than once.
func (t *Transaction) Close() error {
	if t.finished {
		return nil
	}
	return t.Rollback()
}

func (t *Transaction) MaxID(table string) (int64, error) {
	id, err := t.queries.MaxID(t.ctx, table)
	if err != nil {
		return 0, fmt.Errorf("getting max id of %s: %w", table, err)
	}
	return id, nil
}

func (t *Transaction) DirEntryByID(id int64) (*catalog.DirEntry, error) {
	return dirEntryByID(t.ctx, t.queries, id)
}

func (t *Transaction) ListDirEntries(parentID int64) ([]*catalog.DirEntry, error) {
	return listDirEntries(t.ctx, t.queries, parentID)
}

func (t *Transaction) CreateDirEntry(e *catalog.DirEntry) error {
	if err := t.queries.InsertDirEntry(t.ctx, *e); err != nil {
		return fmt.Errorf("inserting dir entry %q: %w", e.Name, err)
	}
	return nil
}

func (t *Transaction) UpdateDirEntry(e *catalog.DirEntry) error {
	n, err := t.queries.UpdateDirEntry(t.ctx, *e)
	if err != nil {
		return fmt.Errorf("updating dir entry %d: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("updating dir entry %d: %w", e.ID, catalog.ErrIntegrity)
	}
	return nil
}

func (t *Transaction) MapToParent(entryID, parentID int64) error {
	if err := t.queries.InsertChild(t.ctx, parentID, entryID); err != nil {
		return fmt.Errorf("mapping entry %d to parent %d: %w", entryID, parentID, err)
	}
	return nil
}

// CreateCollection assigns the collection id itself, as max(id)+1.
func (t *Transaction) CreateCollection(name, path string, rootID, filterID int64) (*catalog.Collection, error) {
	last, err := t.MaxID(catalog.TableCollections)
	if err != nil {
		return nil, err
	}
	c := catalog.Collection{
		ID:           last + 1,
		Name:         name,
		Path:         path,
		RootID:       rootID,
		GlobFilterID: filterID,
	}
	err = t.queries.InsertCollection(t.ctx, InsertCollectionParams{
		ID:           c.ID,
		Name:         c.Name,
		Path:         c.Path,
		RootID:       c.RootID,
		GlobFilterID: c.GlobFilterID,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting collection %q: %w", name, err)
	}
	return &c, nil
}

func (t *Transaction) DeleteFile(id int64) error {
	e, err := t.DirEntryByID(id)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("deleting file %d: %w", id, catalog.ErrIntegrity)
	}
	if e.IsDir {
		return fmt.Errorf("deleting file %d (%s): %w", id, e.Name, catalog.ErrNotAFile)
	}
	return t.deleteFile(id)
}

func (t *Transaction) deleteFile(id int64) error {
	if err := t.queries.DeleteFileMetadata(t.ctx, id); err != nil {
		return fmt.Errorf("deleting metadata of file %d: %w", id, err)
	}
	return t.deleteRow(id)
}

// DeleteDir removes children before the directory itself: files through
// the file path, directories by recursion.
func (t *Transaction) DeleteDir(id int64) error {
	e, err := t.DirEntryByID(id)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("deleting directory %d: %w", id, catalog.ErrIntegrity)
	}
	if !e.IsDir {
		return fmt.Errorf("deleting directory %d (%s): %w", id, e.Name, catalog.ErrNotADirectory)
	}
	return t.deleteDir(id)
}

func (t *Transaction) deleteDir(id int64) error {
	children, err := t.ListDirEntries(id)
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.IsDir {
			err = t.deleteDir(c.ID)
		} else {
			err = t.deleteFile(c.ID)
		}
		if err != nil {
			return err
		}
	}
	return t.deleteRow(id)
}

func (t *Transaction) deleteRow(id int64) error {
	if err := t.queries.DeleteEdges(t.ctx, id); err != nil {
		return fmt.Errorf("deleting edges of %d: %w", id, err)
	}
	if err := t.queries.DeleteDirEntryByID(t.ctx, id); err != nil {
		return fmt.Errorf("deleting dir entry %d: %w", id, err)
	}
	return nil
}

func (t *Transaction) DeleteEntry(id int64) error {
	e, err := t.DirEntryByID(id)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("deleting entry %d: %w", id, catalog.ErrIntegrity)
	}
	if e.IsDir {
		return t.deleteDir(id)
	}
	return t.deleteFile(id)
}

func (t *Transaction) DeleteCollection(c *catalog.Collection) error {
	root, err := t.DirEntryByID(c.RootID)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("collection %q root %d: %w", c.Name, c.RootID, catalog.ErrIntegrity)
	}
	if root.IsDir {
		err = t.deleteDir(root.ID)
	} else {
		err = t.deleteFile(root.ID)
	}
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", c.Name, err)
	}
	if err := t.queries.DeleteCollectionByID(t.ctx, c.ID); err != nil {
		return fmt.Errorf("deleting collection %q: %w", c.Name, err)
	}
	return nil
}

// Compile-time check that Transaction implements catalog.Tx interface
var _ catalog.Tx = (*Transaction)(nil)
