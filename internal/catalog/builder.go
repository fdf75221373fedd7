package catalog

import (
	"fmt"
	"path/filepath"

	"fscat/internal/globfilter"
)

// OnNewDirEntry is called once for every entry a crawl or sync writes.
// It is for progress reporting and cannot influence the walk.
type OnNewDirEntry func(*DirEntry)

type crawlItem struct {
	dirID int64
	path  string
}

// BuildCollection walks root breadth-first and stores every accepted entry
// under a new collection, all inside one transaction. Any storage error
// rolls the whole build back. Unreadable directories and entries the
// filter rejects are skipped. A nil filter accepts everything; the root
// itself is never filtered.
func (s *CatalogService) BuildCollection(name string, root *Path, filterID int64, filter *globfilter.Filter, onNew OnNewDirEntry) (*Collection, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("%s: %w", root.String(), ErrNotADirectory)
	}
	if onNew == nil {
		onNew = func(*DirEntry) {}
	}

	tx, err := s.database.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Close()

	lastID, err := tx.MaxID(TableDirEntries)
	if err != nil {
		return nil, err
	}
	ids := NewIDGenWithLastID(lastID)
	syncTime := ToDBTime(s.clock.Now())

	rootEntry := newDirEntry(ids.Next(), rootName(root.String()), root.Entry(), syncTime)
	if err := tx.CreateDirEntry(rootEntry); err != nil {
		return nil, err
	}
	onNew(rootEntry)

	c, err := tx.CreateCollection(name, root.String(), rootEntry.ID, filterID)
	if err != nil {
		return nil, err
	}

	count := 1
	queue := []crawlItem{{dirID: rootEntry.ID, path: root.String()}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		listing, err := s.fsmgr.ReadDir(item.path)
		if err != nil {
			s.logger.Warn("skipping unreadable directory", "path", item.path, "error", err)
			continue
		}
		for _, sk := range listing.Skipped {
			s.logger.Warn("skipped entry", "path", sk.Path, "error", sk.Err)
		}

		for _, fe := range listing.Entries {
			childPath := filepath.Join(item.path, fe.Name)
			if filter != nil && !filter.Include(childPath) {
				s.logger.Debug("excluded by filter", "path", childPath)
				continue
			}

			e := newDirEntry(ids.Next(), fe.Name, fe, syncTime)
			if err := tx.CreateDirEntry(e); err != nil {
				return nil, err
			}
			if err := tx.MapToParent(e.ID, item.dirID); err != nil {
				return nil, err
			}
			onNew(e)
			count++

			if e.IsDir {
				queue = append(queue, crawlItem{dirID: e.ID, path: childPath})
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("collection created", "name", name, "path", c.Path, "entries", count)
	return c, nil
}

func newDirEntry(id int64, name string, fe *FsEntry, syncTime int64) *DirEntry {
	e := &DirEntry{
		ID:       id,
		Name:     name,
		ModTime:  ToDBTime(fe.ModTime),
		SyncTime: syncTime,
		IsDir:    fe.IsDir,
	}
	if !fe.IsDir {
		e.Size = fe.Size
	}
	return e
}

// rootName is the base name of an absolute path, or the path itself for "/".
func rootName(path string) string {
	base := filepath.Base(path)
	if base == string(filepath.Separator) || base == "." {
		return path
	}
	return base
}
