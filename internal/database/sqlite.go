package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fscat/internal/catalog"
	"fscat/internal/database/migrations"
	"fscat/internal/globfilter"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the catalog.Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *Queries
	path    string
}

// NewSQLiteDatabase opens a SQLite database connection without touching
// the schema. path can be a file path or ":memory:". Use Create,
// OpenExisting or OpenOrCreate to get a migrated catalog.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: NewQueries(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: NewQueries(db),
		path:    "",
	}
}

// OpenConnection opens and configures a SQLite database connection.
// The pool is limited to one connection: the catalog has a single writer,
// and every connection to ":memory:" would otherwise see its own database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Foreign keys are declared DEFERRABLE INITIALLY DEFERRED, so they are
	// checked when a transaction commits.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Collection reads

func (s *SQLiteDatabase) ListCollections() ([]*catalog.Collection, error) {
	cs, err := s.queries.ListCollections(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return collectionPtrs(cs), nil
}

func (s *SQLiteDatabase) CollectionsByPath(path string) ([]*catalog.Collection, error) {
	cs, err := s.queries.GetCollectionsByPath(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("finding collections by path: %w", err)
	}
	return collectionPtrs(cs), nil
}

func (s *SQLiteDatabase) CollectionByName(name string) (*catalog.Collection, error) {
	c, err := s.queries.GetCollectionByName(context.Background(), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding collection by name: %w", err)
	}
	return &c, nil
}

// DirEntry reads

func (s *SQLiteDatabase) DirEntryByID(id int64) (*catalog.DirEntry, error) {
	return dirEntryByID(context.Background(), s.queries, id)
}

func (s *SQLiteDatabase) ListDirEntries(parentID int64) ([]*catalog.DirEntry, error) {
	return listDirEntries(context.Background(), s.queries, parentID)
}

func (s *SQLiteDatabase) MaxID(table string) (int64, error) {
	id, err := s.queries.MaxID(context.Background(), table)
	if err != nil {
		return 0, fmt.Errorf("getting max id of %s: %w", table, err)
	}
	return id, nil
}

// Glob filter reads

func (s *SQLiteDatabase) ListGlobPatterns() ([]*catalog.GlobPattern, error) {
	ps, err := s.queries.ListGlobPatterns(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing glob patterns: %w", err)
	}
	result := make([]*catalog.GlobPattern, len(ps))
	for i := range ps {
		result[i] = &ps[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) ListGlobFilters() ([]*catalog.GlobFilter, error) {
	fs, err := s.queries.ListGlobFilters(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing glob filters: %w", err)
	}
	result := make([]*catalog.GlobFilter, len(fs))
	for i := range fs {
		result[i] = &fs[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) GlobFilterByName(name string) (*catalog.GlobFilter, error) {
	f, err := s.queries.GetGlobFilterByName(context.Background(), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding glob filter by name: %w", err)
	}
	return &f, nil
}

func (s *SQLiteDatabase) FilterPatterns(filterID int64) ([]*catalog.FilterToPattern, error) {
	fps, err := s.queries.ListFilterPatterns(context.Background(), filterID)
	if err != nil {
		return nil, fmt.Errorf("listing filter patterns: %w", err)
	}
	result := make([]*catalog.FilterToPattern, len(fps))
	for i := range fps {
		result[i] = &fps[i]
	}
	return result, nil
}

// GlobFilterByID joins a filter's associations with the pattern table.
// Patterns are compiled once each, in the order the filter first uses them.
func (s *SQLiteDatabase) GlobFilterByID(filterID int64) (*globfilter.Filter, error) {
	patterns, err := s.ListGlobPatterns()
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]string, len(patterns))
	for _, p := range patterns {
		byID[p.ID] = p.Pattern
	}

	assocs, err := s.FilterPatterns(filterID)
	if err != nil {
		return nil, err
	}

	f := &globfilter.Filter{}
	for _, a := range assocs {
		text, ok := byID[a.PatternID]
		if !ok {
			return nil, fmt.Errorf("filter %d references pattern %d: %w", filterID, a.PatternID, catalog.ErrIntegrity)
		}
		if err := f.AddItem(text, a.Include); err != nil {
			return nil, fmt.Errorf("filter %d: %w", filterID, err)
		}
	}
	return f, nil
}

// Writes

// Begin starts a transaction guard. Callers must defer Close.
func (s *SQLiteDatabase) Begin() (catalog.Tx, error) {
	return s.begin(context.Background())
}

func (s *SQLiteDatabase) begin(ctx context.Context) (*Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return &Transaction{tx: tx, queries: s.queries.WithTx(tx), ctx: ctx}, nil
}

func (s *SQLiteDatabase) DeleteCollection(c *catalog.Collection) error {
	tx, err := s.begin(context.Background())
	if err != nil {
		return err
	}
	defer tx.Close()

	if err := tx.DeleteCollection(c); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateGlobFilter stores a filter with its rules at positions 0..n-1.
// Pattern texts already in the catalog are reused.
func (s *SQLiteDatabase) CreateGlobFilter(name string, rules []globfilter.Rule) (*catalog.GlobFilter, error) {
	if _, err := globfilter.New(rules); err != nil {
		return nil, err
	}

	ctx := context.Background()
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Close()
	q := tx.queries

	if _, err := q.GetGlobFilterByName(ctx, name); err == nil {
		return nil, fmt.Errorf("filter %q: %w", name, catalog.ErrAlreadyExists)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finding glob filter: %w", err)
	}

	filterID, err := q.MaxID(ctx, catalog.TableGlobFilters)
	if err != nil {
		return nil, fmt.Errorf("getting max filter id: %w", err)
	}
	filter := catalog.GlobFilter{ID: filterID + 1, Name: name}
	if err := q.InsertGlobFilter(ctx, filter); err != nil {
		return nil, fmt.Errorf("inserting glob filter: %w", err)
	}

	lastPattern, err := q.MaxID(ctx, catalog.TableGlobPatterns)
	if err != nil {
		return nil, fmt.Errorf("getting max pattern id: %w", err)
	}
	patternIDs := catalog.NewIDGenWithLastID(lastPattern)

	lastAssoc, err := q.MaxID(ctx, catalog.TableFilterToPattern)
	if err != nil {
		return nil, fmt.Errorf("getting max filter pattern id: %w", err)
	}
	assocIDs := catalog.NewIDGenWithLastID(lastAssoc)

	for pos, r := range rules {
		p, err := q.GetGlobPatternByText(ctx, r.Pattern)
		if errors.Is(err, sql.ErrNoRows) {
			p = catalog.GlobPattern{ID: patternIDs.Next(), Pattern: r.Pattern}
			if err := q.InsertGlobPattern(ctx, p); err != nil {
				return nil, fmt.Errorf("inserting glob pattern: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("finding glob pattern: %w", err)
		}

		err = q.InsertFilterPattern(ctx, catalog.FilterToPattern{
			ID:        assocIDs.Next(),
			FilterID:  filter.ID,
			PatternID: p.ID,
			Include:   r.Include,
			Position:  pos,
		})
		if err != nil {
			return nil, fmt.Errorf("inserting filter pattern: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &filter, nil
}

func (s *SQLiteDatabase) DeleteGlobFilter(f *catalog.GlobFilter) error {
	ctx := context.Background()
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Close()

	users, err := tx.queries.GetCollectionsByFilterID(ctx, f.ID)
	if err != nil {
		return fmt.Errorf("finding collections using filter: %w", err)
	}
	if len(users) > 0 {
		return fmt.Errorf("filter %q is used by %q: %w", f.Name, users[0].Name, catalog.ErrFilterInUse)
	}

	if err := tx.queries.DeleteGlobFilterByID(ctx, f.ID); err != nil {
		return fmt.Errorf("deleting glob filter: %w", err)
	}
	return tx.Commit()
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*catalog.Operation, error) {
	op, err := s.queries.InsertOperation(context.Background(), time.Now().UTC(), operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return &op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	if err := s.queries.UpdateOperationFinished(context.Background(), id, time.Now().UTC(), status); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*catalog.Operation, error) {
	ops, err := s.queries.ListOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	result := make([]*catalog.Operation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	id, err := s.queries.GetMaxOperationID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func dirEntryByID(ctx context.Context, q *Queries, id int64) (*catalog.DirEntry, error) {
	e, err := q.GetDirEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding dir entry %d: %w", id, err)
	}
	return &e, nil
}

func listDirEntries(ctx context.Context, q *Queries, parentID int64) ([]*catalog.DirEntry, error) {
	es, err := q.ListChildren(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing children of %d: %w", parentID, err)
	}
	result := make([]*catalog.DirEntry, len(es))
	for i := range es {
		result[i] = &es[i]
	}
	return result, nil
}

func collectionPtrs(cs []catalog.Collection) []*catalog.Collection {
	result := make([]*catalog.Collection, len(cs))
	for i := range cs {
		result[i] = &cs[i]
	}
	return result
}

// Compile-time check that SQLiteDatabase implements catalog.Database interface
var _ catalog.Database = (*SQLiteDatabase)(nil)
