package testutil

import (
	"errors"

	"fscat/internal/catalog"
)

// ErrInjected is returned by FailingDatabase writes once the budget is spent.
var ErrInjected = errors.New("injected write failure")

// FailingDatabase wraps a Database so that transactions fail after a fixed
// number of successful entry writes. CreateDirEntry and MapToParent each
// count as one write.
type FailingDatabase struct {
	catalog.Database
	writesLeft int
}

// NewFailingDatabase lets n writes succeed, then fails every later one.
func NewFailingDatabase(db catalog.Database, n int) *FailingDatabase {
	return &FailingDatabase{Database: db, writesLeft: n}
}

func (d *FailingDatabase) Begin() (catalog.Tx, error) {
	tx, err := d.Database.Begin()
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, db: d}, nil
}

func (d *FailingDatabase) spend() error {
	if d.writesLeft <= 0 {
		return ErrInjected
	}
	d.writesLeft--
	return nil
}

type failingTx struct {
	catalog.Tx
	db *FailingDatabase
}

func (t *failingTx) CreateDirEntry(e *catalog.DirEntry) error {
	if err := t.db.spend(); err != nil {
		return err
	}
	return t.Tx.CreateDirEntry(e)
}

func (t *failingTx) MapToParent(entryID, parentID int64) error {
	if err := t.db.spend(); err != nil {
		return err
	}
	return t.Tx.MapToParent(entryID, parentID)
}
