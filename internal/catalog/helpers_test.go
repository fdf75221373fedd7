package catalog_test

import (
	"database/sql"
	"testing"
	"time"

	"fscat/internal/catalog"
	"fscat/internal/testutil"
)

type testEnv struct {
	db    catalog.Database
	sqlDB *sql.DB
	fs    *testutil.MockFilesystemManager
	clock *testutil.StubClock
	svc   *catalog.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, sqlDB := testutil.NewTestSQLDatabase(t)
	fs := testutil.NewMockFilesystemManager()
	clock := testutil.FixedClock()
	return &testEnv{
		db:    db,
		sqlDB: sqlDB,
		fs:    fs,
		clock: clock,
		svc:   catalog.NewCatalogService(db, fs, catalog.NewNopLogger(), clock),
	}
}

// photoTree lays out:
//
//	/data/
//	  Photos/
//	    c.jpg
//	  a.jpg
//	  b.jpg
func (e *testEnv) photoTree() {
	e.fs.AddDirectory("/data")
	e.fs.AddDirectory("/data/Photos")
	e.fs.AddFile("/data/Photos/c.jpg", 30, testutil.DefaultModTime)
	e.fs.AddFile("/data/a.jpg", 10, testutil.DefaultModTime)
	e.fs.AddFile("/data/b.jpg", 20, testutil.DefaultModTime)
}

func (e *testEnv) resolve(t *testing.T, path string) *catalog.Path {
	t.Helper()
	p, err := e.fs.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", path, err)
	}
	return p
}

func (e *testEnv) add(t *testing.T, name, path string) *catalog.Collection {
	t.Helper()
	c, err := e.svc.AddCollection(name, e.resolve(t, path), "default", nil, nil)
	if err != nil {
		t.Fatalf("AddCollection(%s) error = %v", name, err)
	}
	return c
}

// walkNames returns "depth:name" for every entry of a collection in walk order.
func (e *testEnv) walkNames(t *testing.T, name string) []string {
	t.Helper()
	var got []string
	err := e.svc.WalkCollection(name, func(depth int, de *catalog.DirEntry) error {
		got = append(got, string(rune('0'+depth))+":"+de.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkCollection(%s) error = %v", name, err)
	}
	return got
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var later = testutil.DefaultModTime.Add(time.Hour)
