package catalog

import "fmt"

// WalkFunc is called for each entry of a collection. depth is 0 for the root.
// Returning an error stops the walk and is returned from WalkCollection.
type WalkFunc func(depth int, e *DirEntry) error

// WalkCollection visits a collection's entries depth-first in stored child
// order: by name, directories before files on equal names.
func (s *CatalogService) WalkCollection(name string, fn WalkFunc) error {
	c, err := s.GetCollection(name)
	if err != nil {
		return err
	}
	root, err := s.database.DirEntryByID(c.RootID)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("collection %q root %d: %w", name, c.RootID, ErrIntegrity)
	}
	return s.walk(0, root, fn)
}

func (s *CatalogService) walk(depth int, e *DirEntry, fn WalkFunc) error {
	if err := fn(depth, e); err != nil {
		return err
	}
	if !e.IsDir {
		return nil
	}
	children, err := s.database.ListDirEntries(e.ID)
	if err != nil {
		return err
	}
	for _, ch := range children {
		if err := s.walk(depth+1, ch, fn); err != nil {
			return err
		}
	}
	return nil
}
