package catalog

import (
	"fmt"
	"path/filepath"
)

// SyncAction is the write a sync performed for one entry.
type SyncAction int

const (
	SyncCreated SyncAction = iota
	SyncUpdated
	SyncReplaced
	SyncDeleted
)

func (a SyncAction) String() string {
	switch a {
	case SyncCreated:
		return "created"
	case SyncUpdated:
		return "updated"
	case SyncReplaced:
		return "replaced"
	case SyncDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// SyncChange describes one write made by SyncCollection.
type SyncChange struct {
	Action SyncAction
	Path   string
	Entry  *DirEntry
	Result CompareResult // Same for created and deleted entries
}

// SyncReport counts what a sync did.
type SyncReport struct {
	Created   int
	Updated   int
	Replaced  int
	Deleted   int
	Unchanged int
}

// Changed reports whether the sync wrote anything.
func (r *SyncReport) Changed() bool {
	return r.Created+r.Updated+r.Replaced+r.Deleted > 0
}

type syncer struct {
	s        *CatalogService
	tx       Tx
	ids      *IDGen
	syncTime int64
	report   *SyncReport
	onChange func(*SyncChange)
}

// SyncCollection brings a collection up to date with the filesystem using
// the collection's own filter. The walk mirrors BuildCollection: breadth
// first, one transaction, unreadable directories skipped. Entries that
// Compare as Same are left alone. Entries whose type flipped are deleted
// and recreated under a new id. Catalogued children that vanished or that
// the filter now rejects are deleted with their subtrees. Children the
// listing could not describe are left as they are.
func (s *CatalogService) SyncCollection(name string, onChange func(*SyncChange)) (*SyncReport, error) {
	if onChange == nil {
		onChange = func(*SyncChange) {}
	}

	c, err := s.GetCollection(name)
	if err != nil {
		return nil, err
	}
	filter, err := s.database.GlobFilterByID(c.GlobFilterID)
	if err != nil {
		return nil, fmt.Errorf("loading filter of %q: %w", name, err)
	}

	live, err := s.fsmgr.Stat(c.Path)
	if err != nil {
		return nil, fmt.Errorf("reading collection root: %w", err)
	}
	if !live.IsDir {
		return nil, fmt.Errorf("collection root %s: %w", c.Path, ErrNotADirectory)
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
	sy := &syncer{
		s:        s,
		tx:       tx,
		ids:      NewIDGenWithLastID(lastID),
		syncTime: ToDBTime(s.clock.Now()),
		report:   &SyncReport{},
		onChange: onChange,
	}

	root, err := tx.DirEntryByID(c.RootID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("collection %q root %d: %w", name, c.RootID, ErrIntegrity)
	}
	if err := sy.refresh(root, live, c.Path); err != nil {
		return nil, err
	}

	queue := []crawlItem{{dirID: root.ID, path: c.Path}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		listing, err := s.fsmgr.ReadDir(item.path)
		if err != nil {
			s.logger.Warn("skipping unreadable directory", "path", item.path, "error", err)
			continue
		}
		skipped := make(map[string]bool, len(listing.Skipped))
		for _, sk := range listing.Skipped {
			s.logger.Warn("skipped entry", "path", sk.Path, "error", sk.Err)
			skipped[sk.Name] = true
		}

		children, err := tx.ListDirEntries(item.dirID)
		if err != nil {
			return nil, err
		}
		known := make(map[string]*DirEntry, len(children))
		for _, ch := range children {
			known[ch.Name] = ch
		}

		seen := make(map[string]bool, len(listing.Entries))
		for _, fe := range listing.Entries {
			childPath := filepath.Join(item.path, fe.Name)
			if filter != nil && !filter.Include(childPath) {
				s.logger.Debug("excluded by filter", "path", childPath)
				continue
			}
			seen[fe.Name] = true

			e, err := sy.apply(item.dirID, known[fe.Name], fe, childPath)
			if err != nil {
				return nil, err
			}
			if e.IsDir {
				queue = append(queue, crawlItem{dirID: e.ID, path: childPath})
			}
		}

		for _, ch := range children {
			if seen[ch.Name] || skipped[ch.Name] {
				continue
			}
			if err := tx.DeleteEntry(ch.ID); err != nil {
				return nil, err
			}
			sy.report.Deleted++
			onChange(&SyncChange{Action: SyncDeleted, Path: filepath.Join(item.path, ch.Name), Entry: ch})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("collection synced", "name", name,
		"created", sy.report.Created, "updated", sy.report.Updated,
		"replaced", sy.report.Replaced, "deleted", sy.report.Deleted)
	return sy.report, nil
}

// apply reconciles one live child with its catalogued counterpart, which
// may be nil. It returns the entry now stored for the child.
func (sy *syncer) apply(parentID int64, old *DirEntry, fe *FsEntry, path string) (*DirEntry, error) {
	if old == nil {
		e, err := sy.create(parentID, fe)
		if err != nil {
			return nil, err
		}
		sy.report.Created++
		sy.onChange(&SyncChange{Action: SyncCreated, Path: path, Entry: e})
		return e, nil
	}

	result := Compare(old, fe)
	if !result.TypeChanged() {
		return old, sy.refresh(old, fe, path)
	}

	if err := sy.tx.DeleteEntry(old.ID); err != nil {
		return nil, err
	}
	e, err := sy.create(parentID, fe)
	if err != nil {
		return nil, err
	}
	sy.report.Replaced++
	sy.onChange(&SyncChange{Action: SyncReplaced, Path: path, Entry: e, Result: result})
	return e, nil
}

// refresh updates e in place when its metadata drifted.
func (sy *syncer) refresh(e *DirEntry, fe *FsEntry, path string) error {
	result := Compare(e, fe)
	if result == Same {
		sy.report.Unchanged++
		return nil
	}

	e.ModTime = ToDBTime(fe.ModTime)
	e.SyncTime = sy.syncTime
	if !e.IsDir {
		e.Size = fe.Size
	}
	if err := sy.tx.UpdateDirEntry(e); err != nil {
		return err
	}
	sy.report.Updated++
	sy.onChange(&SyncChange{Action: SyncUpdated, Path: path, Entry: e, Result: result})
	return nil
}

func (sy *syncer) create(parentID int64, fe *FsEntry) (*DirEntry, error) {
	e := newDirEntry(sy.ids.Next(), fe.Name, fe, sy.syncTime)
	if err := sy.tx.CreateDirEntry(e); err != nil {
		return nil, err
	}
	if err := sy.tx.MapToParent(e.ID, parentID); err != nil {
		return nil, err
	}
	return e, nil
}
