package catalog

import "errors"

// Errors returned by catalog operations. Check them with errors.Is.
var (
	// ErrNoDatabaseFile is returned when an existing catalog was required
	// but the database file does not exist.
	ErrNoDatabaseFile = errors.New("database file does not exist")

	// ErrIncompatibleSchema is returned when the database schema does not
	// match the version this binary was built for.
	ErrIncompatibleSchema = errors.New("database schema is not compatible")

	// ErrAlreadyExists is returned when creating something whose path or
	// name is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrIntegrity is returned when stored rows reference rows that do not
	// exist, such as a filter naming a missing pattern or a collection whose
	// root entry is gone.
	ErrIntegrity = errors.New("catalog integrity error")

	// ErrNotADirectory is returned when a directory operation is given a file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile is returned when a file operation is given a directory.
	ErrNotAFile = errors.New("not a file")

	// ErrNotFound is returned when a named collection or filter does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFileType is returned for filesystem objects that are
	// neither regular files nor directories.
	ErrUnsupportedFileType = errors.New("not a regular file or directory")

	// ErrFilterInUse is returned when deleting a filter still referenced by
	// a collection.
	ErrFilterInUse = errors.New("filter is used by a collection")

	// ErrAborted is returned when the user declines a confirmation.
	ErrAborted = errors.New("operation aborted")

	// ErrTxFinished is returned when committing or rolling back a
	// transaction that was already completed.
	ErrTxFinished = errors.New("transaction already finished")
)
