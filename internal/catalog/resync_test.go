package catalog_test

import (
	"errors"
	"testing"
	"time"

	"fscat/internal/catalog"
	"fscat/internal/testutil"
)

func syncCollection(t *testing.T, env *testEnv, name string) (*catalog.SyncReport, []*catalog.SyncChange) {
	t.Helper()
	var changes []*catalog.SyncChange
	report, err := env.svc.SyncCollection(name, func(c *catalog.SyncChange) {
		changes = append(changes, c)
	})
	if err != nil {
		t.Fatalf("SyncCollection(%s) error = %v", name, err)
	}
	return report, changes
}

func TestSyncCollection_NoChanges(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.add(t, "photos", "/data")

	report, changes := syncCollection(t, env, "photos")
	if report.Changed() {
		t.Errorf("report = %+v, want no changes", report)
	}
	if report.Unchanged != 5 {
		t.Errorf("Unchanged = %d, want 5", report.Unchanged)
	}
	if len(changes) != 0 {
		t.Errorf("got %d change callbacks, want 0", len(changes))
	}
}

func TestSyncCollection_Created(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.add(t, "photos", "/data")

	env.fs.AddDirectory("/data/New")
	env.fs.AddFile("/data/New/d.jpg", 4, testutil.DefaultModTime)
	env.clock.Advance(time.Hour)

	report, changes := syncCollection(t, env, "photos")
	if report.Created != 2 {
		t.Errorf("Created = %d, want 2", report.Created)
	}
	if len(changes) != 2 || changes[0].Path != "/data/New" || changes[1].Path != "/data/New/d.jpg" {
		t.Fatalf("changes = %+v", changes)
	}
	if changes[0].Action != catalog.SyncCreated {
		t.Errorf("action = %v, want created", changes[0].Action)
	}
	if changes[1].Entry.SyncTime != catalog.ToDBTime(env.clock.Now()) {
		t.Errorf("sync time not taken from clock")
	}

	want := []string{"0:data", "1:New", "2:d.jpg", "1:Photos", "2:c.jpg", "1:a.jpg", "1:b.jpg"}
	if got := env.walkNames(t, "photos"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
}

func TestSyncCollection_Updated(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	c := env.add(t, "photos", "/data")

	env.fs.SetModTime("/data/a.jpg", later)
	env.fs.SetSize("/data/b.jpg", 99)
	env.fs.SetModTime("/data/Photos", later)

	report, changes := syncCollection(t, env, "photos")
	if report.Updated != 3 || report.Created+report.Deleted+report.Replaced != 0 {
		t.Errorf("report = %+v, want 3 updates only", report)
	}

	results := map[string]catalog.CompareResult{}
	for _, ch := range changes {
		results[ch.Path] = ch.Result
	}
	if results["/data/a.jpg"] != catalog.ContentChanged ||
		results["/data/b.jpg"] != catalog.ContentChanged ||
		results["/data/Photos"] != catalog.ModTimeChanged {
		t.Errorf("results = %v", results)
	}

	children, _ := env.db.ListDirEntries(c.RootID)
	for _, ch := range children {
		switch ch.Name {
		case "a.jpg":
			if ch.ModTime != catalog.ToDBTime(later) || ch.ID != 3 {
				t.Errorf("a.jpg = %+v", ch)
			}
		case "b.jpg":
			if ch.Size != 99 {
				t.Errorf("b.jpg size = %d, want 99", ch.Size)
			}
		}
	}
}

func TestSyncCollection_Replaced(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.add(t, "photos", "/data")

	env.fs.Remove("/data/a.jpg")
	env.fs.AddDirectory("/data/a.jpg")
	env.fs.AddFile("/data/a.jpg/inner", 1, testutil.DefaultModTime)
	env.fs.Remove("/data/Photos")
	env.fs.AddFile("/data/Photos", 7, testutil.DefaultModTime)

	report, changes := syncCollection(t, env, "photos")
	if report.Replaced != 2 || report.Created != 1 {
		t.Errorf("report = %+v, want 2 replaced and 1 created", report)
	}

	for _, ch := range changes {
		switch ch.Path {
		case "/data/a.jpg":
			if ch.Result != catalog.TypeBecameDir || ch.Entry.ID <= 5 {
				t.Errorf("a.jpg change = %+v", ch)
			}
		case "/data/Photos":
			if ch.Result != catalog.TypeBecameFile {
				t.Errorf("Photos change = %+v", ch)
			}
		}
	}

	want := []string{"0:data", "1:Photos", "1:a.jpg", "2:inner", "1:b.jpg"}
	if got := env.walkNames(t, "photos"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
	if n := testutil.CountRows(t, env.sqlDB, "dir_entries"); n != 5 {
		t.Errorf("dir_entries rows = %d, want 5", n)
	}
}

func TestSyncCollection_Deleted(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.add(t, "photos", "/data")

	env.fs.Remove("/data/Photos")
	env.fs.Remove("/data/b.jpg")

	report, _ := syncCollection(t, env, "photos")
	if report.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", report.Deleted)
	}
	if n := testutil.CountRows(t, env.sqlDB, "dir_entries"); n != 2 {
		t.Errorf("dir_entries rows = %d, want 2", n)
	}
	if n := testutil.CountRows(t, env.sqlDB, "dir_children"); n != 1 {
		t.Errorf("dir_children rows = %d, want 1", n)
	}
}

func TestSyncCollection_SkippedEntriesStay(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.add(t, "photos", "/data")

	env.fs.AddSkipped("/data/b.jpg", errors.New("permission denied"))
	env.fs.SetUnreadable("/data/Photos")

	report, _ := syncCollection(t, env, "photos")
	if report.Deleted != 0 {
		t.Errorf("Deleted = %d, want 0", report.Deleted)
	}
	want := []string{"0:data", "1:Photos", "2:c.jpg", "1:a.jpg", "1:b.jpg"}
	if got := env.walkNames(t, "photos"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
}

func TestSyncCollection_FilterApplies(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.add(t, "photos", "/data")

	env.fs.AddDirectory("/data/.thumbnails")

	report, _ := syncCollection(t, env, "photos")
	if report.Created != 0 {
		t.Errorf("Created = %d, want 0", report.Created)
	}
}

func TestSyncCollection_NewlyExcludedIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.fs.AddFile("/data/notes.txt", 1, testutil.DefaultModTime)
	root := env.resolve(t, "/data")

	if _, err := env.svc.BuildCollection("photos", root, catalog.DefaultFilterID, nil, nil); err != nil {
		t.Fatalf("BuildCollection() error = %v", err)
	}
	if _, err := env.sqlDB.Exec(`INSERT INTO glob_patterns (id, pattern) VALUES (3, '\.txt$')`); err != nil {
		t.Fatal(err)
	}
	if _, err := env.sqlDB.Exec(`INSERT INTO glob_filter_to_pattern (id, filter_id, pattern_id, include, position)
		VALUES (3, 1, 3, 0, 2)`); err != nil {
		t.Fatal(err)
	}

	report, changes := syncCollection(t, env, "photos")
	if report.Deleted != 1 || len(changes) != 1 || changes[0].Path != "/data/notes.txt" {
		t.Errorf("report = %+v, changes = %+v", report, changes)
	}
}

func TestSyncCollection_Errors(t *testing.T) {
	t.Run("unknown collection", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SyncCollection("nope", nil)
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("SyncCollection() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("root became a file", func(t *testing.T) {
		env := newTestEnv(t)
		env.photoTree()
		env.add(t, "photos", "/data")
		env.fs.Remove("/data")
		env.fs.AddFile("/data", 1, testutil.DefaultModTime)

		_, err := env.svc.SyncCollection("photos", nil)
		if !errors.Is(err, catalog.ErrNotADirectory) {
			t.Errorf("SyncCollection() error = %v, want ErrNotADirectory", err)
		}
	})

	t.Run("root missing", func(t *testing.T) {
		env := newTestEnv(t)
		env.photoTree()
		env.add(t, "photos", "/data")
		env.fs.Remove("/data")

		if _, err := env.svc.SyncCollection("photos", nil); err == nil {
			t.Error("SyncCollection() should fail when the root is gone")
		}
	})

	t.Run("write failure rolls back", func(t *testing.T) {
		env := newTestEnv(t)
		env.photoTree()
		env.add(t, "photos", "/data")
		env.fs.AddFile("/data/z1", 1, testutil.DefaultModTime)
		env.fs.AddFile("/data/z2", 1, testutil.DefaultModTime)

		failing := testutil.NewFailingDatabase(env.db, 3)
		svc := catalog.NewCatalogService(failing, env.fs, catalog.NewNopLogger(), env.clock)
		if _, err := svc.SyncCollection("photos", nil); !errors.Is(err, testutil.ErrInjected) {
			t.Fatalf("SyncCollection() error = %v, want ErrInjected", err)
		}
		if n := testutil.CountRows(t, env.sqlDB, "dir_entries"); n != 5 {
			t.Errorf("dir_entries rows = %d, want 5", n)
		}
	})
}

func TestSyncActionString(t *testing.T) {
	tests := map[catalog.SyncAction]string{
		catalog.SyncCreated:    "created",
		catalog.SyncUpdated:    "updated",
		catalog.SyncReplaced:   "replaced",
		catalog.SyncDeleted:    "deleted",
		catalog.SyncAction(99): "unknown",
	}
	for a, want := range tests {
		if got := a.String(); got != want {
			t.Errorf("SyncAction(%d).String() = %q, want %q", int(a), got, want)
		}
	}
}
