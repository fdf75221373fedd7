package app

// Operation statuses recorded in the operations table.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// CatalogOperation tracks a CLI operation that may mutate the catalog.
// Operations are created in memory with ID=0. Only mutating commands
// persist them (giving them an auto-increment ID from the database).
type CatalogOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewCatalogOperation creates a new in-memory operation.
func NewCatalogOperation(operation, parameters string) *CatalogOperation {
	return &CatalogOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *CatalogOperation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed. It is recorded that way on Close.
func (op *CatalogOperation) Fail() {
	op.Status = StatusError
}
