package catalog_test

import (
	"errors"
	"testing"

	"fscat/internal/catalog"
	"fscat/internal/testutil"
)

func TestBuildCollection_FlatTree(t *testing.T) {
	env := newTestEnv(t)
	env.fs.AddDirectory("/data")
	env.fs.AddDirectory("/data/Photos")
	env.fs.AddFile("/data/a.jpg", 10, testutil.DefaultModTime)
	env.fs.AddFile("/data/b.jpg", 20, testutil.DefaultModTime)

	c := env.add(t, "photos", "/data")

	if n := testutil.CountRows(t, env.sqlDB, "dir_entries"); n != 4 {
		t.Errorf("dir_entries rows = %d, want 4", n)
	}
	if n := testutil.CountRows(t, env.sqlDB, "dir_children"); n != 3 {
		t.Errorf("dir_children rows = %d, want 3", n)
	}

	root, err := env.db.DirEntryByID(c.RootID)
	if err != nil || root == nil {
		t.Fatalf("DirEntryByID(root) = %v, %v", root, err)
	}
	if !root.IsDir || root.Name != "data" {
		t.Errorf("root = %+v", root)
	}

	var parents int
	if err := env.sqlDB.QueryRow("SELECT COUNT(*) FROM dir_children WHERE entry_id = ?", c.RootID).Scan(&parents); err != nil {
		t.Fatal(err)
	}
	if parents != 0 {
		t.Errorf("root has %d parent edges, want 0", parents)
	}

	children, err := env.db.ListDirEntries(c.RootID)
	if err != nil {
		t.Fatalf("ListDirEntries() error = %v", err)
	}
	var names []string
	for _, ch := range children {
		names = append(names, ch.Name)
	}
	if want := []string{"Photos", "a.jpg", "b.jpg"}; !equalStrings(names, want) {
		t.Errorf("children = %v, want %v", names, want)
	}
	if !children[0].IsDir || children[1].Size != 10 {
		t.Errorf("children = %+v %+v", children[0], children[1])
	}
}

func TestBuildCollection_Fields(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	c := env.add(t, "photos", "/data")

	children, _ := env.db.ListDirEntries(c.RootID)
	for _, ch := range children {
		if ch.SyncTime != catalog.ToDBTime(env.clock.Now()) {
			t.Errorf("%s sync time = %d, want clock time", ch.Name, ch.SyncTime)
		}
		if ch.ModTime != catalog.ToDBTime(testutil.DefaultModTime) {
			t.Errorf("%s mod time = %d", ch.Name, ch.ModTime)
		}
		if ch.IsDir && ch.Size != 0 {
			t.Errorf("directory %s has size %d", ch.Name, ch.Size)
		}
	}
	if c.Path != "/data" || c.GlobFilterID != catalog.DefaultFilterID {
		t.Errorf("collection = %+v", c)
	}
}

func TestBuildCollection_CallbackOrder(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()

	var got []string
	_, err := env.svc.AddCollection("photos", env.resolve(t, "/data"), "default", nil, func(e *catalog.DirEntry) {
		got = append(got, e.Name)
	})
	if err != nil {
		t.Fatalf("AddCollection() error = %v", err)
	}

	want := []string{"data", "Photos", "a.jpg", "b.jpg", "c.jpg"}
	if !equalStrings(got, want) {
		t.Errorf("callback order = %v, want %v", got, want)
	}
}

func TestBuildCollection_IDsContinueFromMax(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.fs.AddDirectory("/other")
	env.fs.AddFile("/other/x", 1, testutil.DefaultModTime)

	env.add(t, "photos", "/data")
	c := env.add(t, "other", "/other")

	if c.RootID != 6 {
		t.Errorf("second root id = %d, want 6", c.RootID)
	}
	if c.ID != 2 {
		t.Errorf("second collection id = %d, want 2", c.ID)
	}
}

func TestBuildCollection_RollsBackOnWriteFailure(t *testing.T) {
	for _, budget := range []int{0, 1, 2, 3, 6} {
		t.Run("", func(t *testing.T) {
			env := newTestEnv(t)
			env.photoTree()
			failing := testutil.NewFailingDatabase(env.db, budget)
			svc := catalog.NewCatalogService(failing, env.fs, catalog.NewNopLogger(), env.clock)

			_, err := svc.AddCollection("photos", env.resolve(t, "/data"), "default", nil, nil)
			if !errors.Is(err, testutil.ErrInjected) {
				t.Fatalf("AddCollection() error = %v, want ErrInjected", err)
			}

			for _, table := range []string{"dir_entries", "dir_children", "collections"} {
				if n := testutil.CountRows(t, env.sqlDB, table); n != 0 {
					t.Errorf("%s rows = %d after rollback, want 0", table, n)
				}
			}
		})
	}
}

func TestBuildCollection_FilterExcludesSubtree(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.fs.AddDirectory("/data/.thumbnails")
	env.fs.AddFile("/data/.thumbnails/a.png", 1, testutil.DefaultModTime)
	env.fs.AddDirectory("/data/Photos/.thumbnails")

	env.add(t, "photos", "/data")

	want := []string{"0:data", "1:Photos", "2:c.jpg", "1:a.jpg", "1:b.jpg"}
	if got := env.walkNames(t, "photos"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
}

func TestBuildCollection_RootIsNeverFiltered(t *testing.T) {
	env := newTestEnv(t)
	env.fs.AddDirectory("/media/.thumbnails")
	env.fs.AddFile("/media/.thumbnails/x.png", 1, testutil.DefaultModTime)

	env.add(t, "thumbs", "/media/.thumbnails")

	want := []string{"0:.thumbnails", "1:x.png"}
	if got := env.walkNames(t, "thumbs"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
}

func TestBuildCollection_SkipsUnreadable(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.fs.SetUnreadable("/data/Photos")
	env.fs.AddFile("/data/socket", 0, testutil.DefaultModTime)
	env.fs.AddSkipped("/data/socket", catalog.ErrUnsupportedFileType)

	env.add(t, "photos", "/data")

	want := []string{"0:data", "1:Photos", "1:a.jpg", "1:b.jpg"}
	if got := env.walkNames(t, "photos"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
}

func TestBuildCollection_UnreadableRoot(t *testing.T) {
	env := newTestEnv(t)
	env.photoTree()
	env.fs.SetUnreadable("/data")

	env.add(t, "photos", "/data")

	if got := env.walkNames(t, "photos"); !equalStrings(got, []string{"0:data"}) {
		t.Errorf("walk = %v, want only the root", got)
	}
}

func TestBuildCollection_RootNotADirectory(t *testing.T) {
	env := newTestEnv(t)
	env.fs.AddFile("/file", 1, testutil.DefaultModTime)

	_, err := env.svc.BuildCollection("f", env.resolve(t, "/file"), catalog.DefaultFilterID, nil, nil)
	if !errors.Is(err, catalog.ErrNotADirectory) {
		t.Errorf("BuildCollection() error = %v, want ErrNotADirectory", err)
	}
}

func TestBuildCollection_NilFilterAcceptsAll(t *testing.T) {
	env := newTestEnv(t)
	env.fs.AddDirectory("/data")
	env.fs.AddDirectory("/data/.thumbnails")

	if _, err := env.svc.BuildCollection("all", env.resolve(t, "/data"), catalog.DefaultFilterID, nil, nil); err != nil {
		t.Fatalf("BuildCollection() error = %v", err)
	}
	want := []string{"0:data", "1:.thumbnails"}
	if got := env.walkNames(t, "all"); !equalStrings(got, want) {
		t.Errorf("walk = %v, want %v", got, want)
	}
}

func TestBuildCollection_VanishedDirectory(t *testing.T) {
	env := newTestEnv(t)
	env.fs.AddDirectory("/data")
	root := env.resolve(t, "/data")
	env.fs.Remove("/data")

	if _, err := env.svc.BuildCollection("gone", root, catalog.DefaultFilterID, nil, nil); err != nil {
		t.Fatalf("BuildCollection() error = %v", err)
	}
	if got := env.walkNames(t, "gone"); len(got) != 1 {
		t.Errorf("walk = %v, want only the root", got)
	}
}
