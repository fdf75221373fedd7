package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fscat/internal/catalog"
	"fscat/internal/config"
	"fscat/internal/database"
	"fscat/internal/encryption"
	"fscat/internal/fs"
	"fscat/internal/globfilter"
	"fscat/internal/snapshot"
)

// Options select how NewCatalogApp opens the catalog.
type Options struct {
	// Operation names the CLI command being run (e.g. "add", "sync").
	Operation string
	// Parameters is recorded with the operation when it is persisted.
	Parameters string
	// CreateDatabase creates and migrates a missing sqlite catalog.
	CreateDatabase bool
	// Console receives log output next to the log file. Nil means stderr.
	Console io.Writer
}

// CatalogApp is the application layer between the CLI and CatalogService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the DB lifecycle on Close.
type CatalogApp struct {
	cfg       *config.Config
	db        catalog.Database
	snapshots catalog.SnapshotStore
	fsmgr     catalog.FilesystemManager
	encryptor catalog.Encryptor
	service   *catalog.CatalogService
	op        *CatalogOperation
	logCloser io.Closer
}

// NewCatalogApp creates a fully wired CatalogApp from the given config.
// The caller must call Close when done.
func NewCatalogApp(cfg *config.Config, opts Options) (*CatalogApp, error) {
	fsmgr := fs.NewOSFilesystemManager()

	store, err := snapshot.NewStoreFromConfig(cfg.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.CatalogID, opts.CreateDatabase)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	// A snapshot newer than the local catalog means another machine wrote
	// to it since; writing here would fork the history.
	if store != nil {
		remoteVersion, err := store.Version(cfg.CatalogID)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("checking snapshot version: %w", err)
		}
		localMax, err := db.MaxOperationID()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("checking local catalog version: %w", err)
		}
		if remoteVersion > localMax {
			db.Close()
			return nil, fmt.Errorf("local catalog is behind snapshot (local=%d, snapshot=%d): pull the snapshot or re-initialize", localMax, remoteVersion)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logCloser, err := newLogger(cfg.LogDir, cfg.Log, opID, console)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := catalog.NewCatalogService(db, fsmgr, &slogAdapter{l: logger}, catalog.RealClock{})

	return &CatalogApp{
		cfg:       cfg,
		db:        db,
		snapshots: store,
		fsmgr:     fsmgr,
		encryptor: enc,
		service:   svc,
		op:        NewCatalogOperation(opts.Operation, opts.Parameters),
		logCloser: logCloser,
	}, nil
}

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for DB-mutating commands.
func (a *CatalogApp) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// track marks the operation failed when err is non-nil and passes err through.
func (a *CatalogApp) track(err error) error {
	if err != nil {
		a.op.Fail()
	}
	return err
}

// AddCollection resolves rawPath and catalogues it as collection name.
// An empty filterName uses the configured default filter.
func (a *CatalogApp) AddCollection(name, rawPath, filterName string, confirm catalog.ConfirmOverlap, onNew catalog.OnNewDirEntry) (*catalog.Collection, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if filterName == "" {
		filterName = a.cfg.Crawl.DefaultFilter
	}
	if filterName == "" {
		filterName = "default"
	}

	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	c, err := a.service.AddCollection(name, p, filterName, confirm, onNew)
	return c, a.track(err)
}

// RemoveCollection deletes a collection and its entries.
func (a *CatalogApp) RemoveCollection(name string) error {
	if err := a.persistOperation(); err != nil {
		return err
	}
	return a.track(a.service.RemoveCollection(name))
}

// SyncCollection refreshes a collection from the filesystem.
func (a *CatalogApp) SyncCollection(name string, onChange func(*catalog.SyncChange)) (*catalog.SyncReport, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	r, err := a.service.SyncCollection(name, onChange)
	return r, a.track(err)
}

// ListCollections returns all collections ordered by name.
func (a *CatalogApp) ListCollections() ([]*catalog.Collection, error) {
	return a.service.ListCollections()
}

// GetCollection returns the named collection.
func (a *CatalogApp) GetCollection(name string) (*catalog.Collection, error) {
	return a.service.GetCollection(name)
}

// WalkCollection visits every entry of a collection depth-first.
func (a *CatalogApp) WalkCollection(name string, fn catalog.WalkFunc) error {
	return a.service.WalkCollection(name, fn)
}

// CreateFilter stores a named filter built from rules.
func (a *CatalogApp) CreateFilter(name string, rules []globfilter.Rule) (*catalog.GlobFilter, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	f, err := a.service.CreateFilter(name, rules)
	return f, a.track(err)
}

// ImportFilter reads a rule file and stores it as a named filter.
func (a *CatalogApp) ImportFilter(name, path string) (*catalog.GlobFilter, error) {
	rules, err := fs.ParseRuleFile(path)
	if err != nil {
		return nil, err
	}
	return a.CreateFilter(name, rules)
}

// ListFilters returns every filter with its rules.
func (a *CatalogApp) ListFilters() ([]*catalog.FilterInfo, error) {
	return a.service.ListFilters()
}

// DeleteFilter removes a filter no collection uses.
func (a *CatalogApp) DeleteFilter(name string) error {
	if err := a.persistOperation(); err != nil {
		return err
	}
	return a.track(a.service.DeleteFilter(name))
}

// GetHistory returns the most recent operations.
func (a *CatalogApp) GetHistory(limit int) ([]*catalog.Operation, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the DB
// and uploads it to the snapshot store when one is configured.
// For non-persisted operations: just closes the database.
func (a *CatalogApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		var tmpPath string
		if a.snapshots != nil {
			path, err := a.backupToTemp()
			keep(err)
			tmpPath = path
		}

		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}

		if tmpPath != "" {
			keep(a.uploadSnapshot(tmpPath, a.op.ID))
			os.RemoveAll(filepath.Dir(tmpPath))
		}
	} else {
		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}
	}

	if a.logCloser != nil {
		a.logCloser.Close()
	}
	return firstErr
}

// backupToTemp writes a consistent copy of the catalog into a fresh temp
// directory. VACUUM INTO refuses to overwrite, so the file must not exist yet.
func (a *CatalogApp) backupToTemp() (string, error) {
	dir, err := os.MkdirTemp("", "fscat-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir for snapshot: %w", err)
	}
	path := filepath.Join(dir, "catalog.db")
	if err := a.db.BackupTo(path); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}

// uploadSnapshot stores the file at path, encrypting it first when an
// encryptor is configured.
func (a *CatalogApp) uploadSnapshot(path string, version int64) error {
	if a.encryptor != nil {
		encPath := path + ".enc"
		if err := encryptFile(a.encryptor, path, encPath); err != nil {
			return err
		}
		path = encPath
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	if err := a.snapshots.Put(a.cfg.CatalogID, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	return nil
}

func encryptFile(enc catalog.Encryptor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing encrypted snapshot: %w", err)
	}
	return nil
}

// PullSnapshot downloads the latest snapshot of the configured catalog to
// destPath, decrypting it with passphrase when encryption is configured.
// The result is checked to be a catalog with a current schema.
func PullSnapshot(cfg *config.Config, destPath, passphrase string) error {
	store, err := snapshot.NewStoreFromConfig(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("creating snapshot store: %w", err)
	}
	if store == nil {
		return errors.New("no snapshot store configured")
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}

	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("%s: %w", destPath, catalog.ErrAlreadyExists)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0700); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".fscat-pull-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := store.Get(cfg.CatalogID, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	if enc != nil {
		dc, err := enc.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
		plainPath := tmpPath + ".plain"
		defer os.Remove(plainPath)
		if err := decryptFile(dc, tmpPath, plainPath); err != nil {
			return err
		}
		if err := os.Rename(plainPath, tmpPath); err != nil {
			return fmt.Errorf("replacing snapshot: %w", err)
		}
	}

	db, err := database.OpenExisting(tmpPath)
	if err != nil {
		return fmt.Errorf("checking pulled snapshot: %w", err)
	}
	db.Close()

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("moving snapshot into place: %w", err)
	}
	return nil
}

func decryptFile(dc catalog.DecryptionContext, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating decrypted snapshot: %w", err)
	}
	if err := dc.Decrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing decrypted snapshot: %w", err)
	}
	return nil
}
