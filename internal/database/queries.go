package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fscat/internal/catalog"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries is the catalog's statement set. The same queries run against the
// connection for reads and against a transaction for writes.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// maxIDTables guards MaxID, which has to splice the table name into SQL.
var maxIDTables = map[string]string{
	catalog.TableDirEntries:      "SELECT COALESCE(MAX(id), 0) FROM dir_entries",
	catalog.TableCollections:     "SELECT COALESCE(MAX(id), 0) FROM collections",
	catalog.TableGlobPatterns:    "SELECT COALESCE(MAX(id), 0) FROM glob_patterns",
	catalog.TableGlobFilters:     "SELECT COALESCE(MAX(id), 0) FROM glob_filters",
	catalog.TableFilterToPattern: "SELECT COALESCE(MAX(id), 0) FROM glob_filter_to_pattern",
}

func (q *Queries) MaxID(ctx context.Context, table string) (int64, error) {
	query, ok := maxIDTables[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var id int64
	err := q.db.QueryRowContext(ctx, query).Scan(&id)
	return id, err
}

// Collections

const collectionColumns = "id, name, path, root_id, glob_filter_id"

func scanCollection(row interface{ Scan(...any) error }) (catalog.Collection, error) {
	var c catalog.Collection
	err := row.Scan(&c.ID, &c.Name, &c.Path, &c.RootID, &c.GlobFilterID)
	return c, err
}

func (q *Queries) collections(ctx context.Context, query string, args ...any) ([]catalog.Collection, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

func (q *Queries) ListCollections(ctx context.Context) ([]catalog.Collection, error) {
	return q.collections(ctx, "SELECT "+collectionColumns+" FROM collections ORDER BY name")
}

func (q *Queries) GetCollectionsByPath(ctx context.Context, path string) ([]catalog.Collection, error) {
	return q.collections(ctx, "SELECT "+collectionColumns+" FROM collections WHERE path = ? ORDER BY name", path)
}

func (q *Queries) GetCollectionsByFilterID(ctx context.Context, filterID int64) ([]catalog.Collection, error) {
	return q.collections(ctx, "SELECT "+collectionColumns+" FROM collections WHERE glob_filter_id = ? ORDER BY name", filterID)
}

func (q *Queries) GetCollectionByName(ctx context.Context, name string) (catalog.Collection, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+collectionColumns+" FROM collections WHERE name = ?", name)
	return scanCollection(row)
}

type InsertCollectionParams struct {
	ID           int64
	Name         string
	Path         string
	RootID       int64
	GlobFilterID int64
}

func (q *Queries) InsertCollection(ctx context.Context, arg InsertCollectionParams) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO collections (id, name, path, root_id, glob_filter_id) VALUES (?, ?, ?, ?, ?)",
		arg.ID, arg.Name, arg.Path, arg.RootID, arg.GlobFilterID)
	return err
}

func (q *Queries) DeleteCollectionByID(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	return err
}

// Dir entries

func scanDirEntry(row interface{ Scan(...any) error }) (catalog.DirEntry, error) {
	var e catalog.DirEntry
	err := row.Scan(&e.ID, &e.Name, &e.ModTime, &e.SyncTime, &e.IsDir, &e.Size)
	return e, err
}

func (q *Queries) GetDirEntryByID(ctx context.Context, id int64) (catalog.DirEntry, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT id, name, mod_time, sync_time, is_dir, size FROM dir_entries WHERE id = ?", id)
	return scanDirEntry(row)
}

// ListChildren orders by name, then directories first. Names compare
// bytewise under SQLite's default BINARY collation.
func (q *Queries) ListChildren(ctx context.Context, directoryID int64) ([]catalog.DirEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.mod_time, e.sync_time, e.is_dir, e.size
		FROM dir_entries e
		JOIN dir_children d ON d.entry_id = e.id
		WHERE d.directory_id = ?
		ORDER BY e.name, e.is_dir DESC`, directoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.DirEntry
	for rows.Next() {
		e, err := scanDirEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

func (q *Queries) ListChildIDs(ctx context.Context, directoryID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT entry_id FROM dir_children WHERE directory_id = ?", directoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return ids, rows.Err()
}

func (q *Queries) InsertDirEntry(ctx context.Context, e catalog.DirEntry) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO dir_entries (id, name, mod_time, sync_time, is_dir, size) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Name, e.ModTime, e.SyncTime, e.IsDir, e.Size)
	return err
}

// UpdateDirEntry returns the number of rows changed.
func (q *Queries) UpdateDirEntry(ctx context.Context, e catalog.DirEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE dir_entries SET mod_time = ?, sync_time = ?, size = ? WHERE id = ?",
		e.ModTime, e.SyncTime, e.Size, e.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) InsertChild(ctx context.Context, directoryID, entryID int64) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO dir_children (directory_id, entry_id) VALUES (?, ?)", directoryID, entryID)
	return err
}

// DeleteEdges removes every edge naming id as parent or child.
func (q *Queries) DeleteEdges(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM dir_children WHERE entry_id = ? OR directory_id = ?", id, id)
	return err
}

func (q *Queries) DeleteDirEntryByID(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM dir_entries WHERE id = ?", id)
	return err
}

// DeleteFileMetadata clears the per-file auxiliary tables.
func (q *Queries) DeleteFileMetadata(ctx context.Context, fileID int64) error {
	for _, stmt := range []string{
		"DELETE FROM file_tags WHERE file_id = ?",
		"DELETE FROM file_history WHERE file_id = ?",
		"DELETE FROM file_mime WHERE file_id = ?",
	} {
		if _, err := q.db.ExecContext(ctx, stmt, fileID); err != nil {
			return err
		}
	}
	return nil
}

// Glob patterns and filters

func (q *Queries) ListGlobPatterns(ctx context.Context) ([]catalog.GlobPattern, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, pattern FROM glob_patterns ORDER BY pattern")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.GlobPattern
	for rows.Next() {
		var p catalog.GlobPattern
		if err := rows.Scan(&p.ID, &p.Pattern); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

func (q *Queries) GetGlobPatternByText(ctx context.Context, pattern string) (catalog.GlobPattern, error) {
	var p catalog.GlobPattern
	err := q.db.QueryRowContext(ctx, "SELECT id, pattern FROM glob_patterns WHERE pattern = ?", pattern).
		Scan(&p.ID, &p.Pattern)
	return p, err
}

func (q *Queries) InsertGlobPattern(ctx context.Context, p catalog.GlobPattern) error {
	_, err := q.db.ExecContext(ctx, "INSERT INTO glob_patterns (id, pattern) VALUES (?, ?)", p.ID, p.Pattern)
	return err
}

func (q *Queries) ListGlobFilters(ctx context.Context) ([]catalog.GlobFilter, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, name FROM glob_filters ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.GlobFilter
	for rows.Next() {
		var f catalog.GlobFilter
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

func (q *Queries) GetGlobFilterByName(ctx context.Context, name string) (catalog.GlobFilter, error) {
	var f catalog.GlobFilter
	err := q.db.QueryRowContext(ctx, "SELECT id, name FROM glob_filters WHERE name = ?", name).
		Scan(&f.ID, &f.Name)
	return f, err
}

func (q *Queries) InsertGlobFilter(ctx context.Context, f catalog.GlobFilter) error {
	_, err := q.db.ExecContext(ctx, "INSERT INTO glob_filters (id, name) VALUES (?, ?)", f.ID, f.Name)
	return err
}

func (q *Queries) DeleteGlobFilterByID(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM glob_filter_to_pattern WHERE filter_id = ?", id); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, "DELETE FROM glob_filters WHERE id = ?", id)
	return err
}

func (q *Queries) ListFilterPatterns(ctx context.Context, filterID int64) ([]catalog.FilterToPattern, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, filter_id, pattern_id, include, position
		FROM glob_filter_to_pattern
		WHERE filter_id = ?
		ORDER BY position`, filterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.FilterToPattern
	for rows.Next() {
		var fp catalog.FilterToPattern
		if err := rows.Scan(&fp.ID, &fp.FilterID, &fp.PatternID, &fp.Include, &fp.Position); err != nil {
			return nil, err
		}
		items = append(items, fp)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

func (q *Queries) InsertFilterPattern(ctx context.Context, fp catalog.FilterToPattern) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO glob_filter_to_pattern (id, filter_id, pattern_id, include, position) VALUES (?, ?, ?, ?, ?)",
		fp.ID, fp.FilterID, fp.PatternID, fp.Include, fp.Position)
	return err
}

// Operations

func (q *Queries) InsertOperation(ctx context.Context, startedAt time.Time, operation, parameters string) (catalog.Operation, error) {
	var op catalog.Operation
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO operations (started_at, operation, parameters, status)
		VALUES (?, ?, ?, 'running')
		RETURNING id, started_at, finished_at, operation, parameters, status`,
		startedAt, operation, parameters).
		Scan(&op.ID, &op.StartedAt, &op.FinishedAt, &op.Operation, &op.Parameters, &op.Status)
	return op, err
}

func (q *Queries) UpdateOperationFinished(ctx context.Context, id int64, finishedAt time.Time, status string) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE operations SET finished_at = ?, status = ? WHERE id = ?", finishedAt, status, id)
	return err
}

func (q *Queries) ListOperations(ctx context.Context, limit int64) ([]catalog.Operation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, operation, parameters, status
		FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.Operation
	for rows.Next() {
		var op catalog.Operation
		if err := rows.Scan(&op.ID, &op.StartedAt, &op.FinishedAt, &op.Operation, &op.Parameters, &op.Status); err != nil {
			return nil, err
		}
		items = append(items, op)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

func (q *Queries) GetMaxOperationID(ctx context.Context) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM operations").Scan(&id)
	return id, err
}
