package catalog

import (
	"fmt"

	"fscat/internal/globfilter"
)

// CatalogService is the orchestration layer between the CLI wiring and the
// storage, filesystem and filter components.
type CatalogService struct {
	database Database
	fsmgr    FilesystemManager
	logger   Logger
	clock    Clock
}

// NewCatalogService creates a new CatalogService with the provided dependencies.
func NewCatalogService(database Database, fsmgr FilesystemManager, logger Logger, clock Clock) *CatalogService {
	return &CatalogService{
		database: database,
		fsmgr:    fsmgr,
		logger:   logger,
		clock:    clock,
	}
}

// ConfirmOverlap is asked whether to go on when collections already exist
// at the path being added. Returning false aborts.
type ConfirmOverlap func(existing []*Collection) bool

// AddCollection catalogues the tree under root as a new collection named
// name, using the glob filter called filterName.
func (s *CatalogService) AddCollection(name string, root *Path, filterName string, confirm ConfirmOverlap, onNew OnNewDirEntry) (*Collection, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("%s: %w", root.String(), ErrNotADirectory)
	}

	existing, err := s.database.CollectionByName(name)
	if err != nil {
		return nil, fmt.Errorf("checking collection name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("collection %q: %w", name, ErrAlreadyExists)
	}

	overlapping, err := s.database.CollectionsByPath(root.String())
	if err != nil {
		return nil, fmt.Errorf("checking collections at path: %w", err)
	}
	if len(overlapping) > 0 {
		s.logger.Warn("collections already exist at path", "path", root.String(), "count", len(overlapping))
		if confirm == nil || !confirm(overlapping) {
			return nil, ErrAborted
		}
	}

	f, err := s.database.GlobFilterByName(filterName)
	if err != nil {
		return nil, fmt.Errorf("finding filter: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("filter %q: %w", filterName, ErrNotFound)
	}
	filter, err := s.database.GlobFilterByID(f.ID)
	if err != nil {
		return nil, fmt.Errorf("loading filter %q: %w", filterName, err)
	}

	return s.BuildCollection(name, root, f.ID, filter, onNew)
}

// RemoveCollection deletes a collection and everything catalogued under it.
func (s *CatalogService) RemoveCollection(name string) error {
	c, err := s.database.CollectionByName(name)
	if err != nil {
		return fmt.Errorf("finding collection: %w", err)
	}
	if c == nil {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}

	if err := s.database.DeleteCollection(c); err != nil {
		return err
	}
	s.logger.Info("collection removed", "name", name, "path", c.Path)
	return nil
}

// ListCollections returns all collections ordered by name.
func (s *CatalogService) ListCollections() ([]*Collection, error) {
	return s.database.ListCollections()
}

// GetCollection returns the named collection or ErrNotFound.
func (s *CatalogService) GetCollection(name string) (*Collection, error) {
	c, err := s.database.CollectionByName(name)
	if err != nil {
		return nil, fmt.Errorf("finding collection: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// FilterInfo is a glob filter with its rules in evaluation order.
type FilterInfo struct {
	Filter *GlobFilter
	Rules  []globfilter.Rule
}

// CreateFilter stores a new named filter. Every pattern must compile.
func (s *CatalogService) CreateFilter(name string, rules []globfilter.Rule) (*GlobFilter, error) {
	f, err := s.database.CreateGlobFilter(name, rules)
	if err != nil {
		return nil, fmt.Errorf("creating filter %q: %w", name, err)
	}
	s.logger.Info("filter created", "name", name, "rules", len(rules))
	return f, nil
}

// ListFilters returns every filter with its rules.
func (s *CatalogService) ListFilters() ([]*FilterInfo, error) {
	filters, err := s.database.ListGlobFilters()
	if err != nil {
		return nil, err
	}

	infos := make([]*FilterInfo, 0, len(filters))
	for _, f := range filters {
		compiled, err := s.database.GlobFilterByID(f.ID)
		if err != nil {
			return nil, fmt.Errorf("loading filter %q: %w", f.Name, err)
		}
		infos = append(infos, &FilterInfo{Filter: f, Rules: compiled.Rules()})
	}
	return infos, nil
}

// DeleteFilter removes a filter that no collection uses.
func (s *CatalogService) DeleteFilter(name string) error {
	f, err := s.database.GlobFilterByName(name)
	if err != nil {
		return fmt.Errorf("finding filter: %w", err)
	}
	if f == nil {
		return fmt.Errorf("filter %q: %w", name, ErrNotFound)
	}
	if err := s.database.DeleteGlobFilter(f); err != nil {
		return err
	}
	s.logger.Info("filter deleted", "name", name)
	return nil
}

// GetHistory returns the most recent operations, newest first.
func (s *CatalogService) GetHistory(limit int) ([]*Operation, error) {
	return s.database.ListOperations(limit)
}
