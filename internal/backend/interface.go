package backend

import (
	"context"

	"timecard/internal/amqp"
	"timecard/internal/sheets"
	"timecard/internal/storage"
)

// CleanupFunc releases resources held by a created component.
type CleanupFunc func() error

// StoreResult contains the document store and its cleanup function.
type StoreResult struct {
	Store   storage.DocumentStore
	Cleanup CleanupFunc
}

// Factory builds the pluggable parts of the ledger from configuration.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateMonthWriter(ctx context.Context, config Config) (sheets.MonthReportWriter, error)
	// CreateBroker returns nil when no AMQP URL is configured.
	CreateBroker(ctx context.Context, config Config) (*amqp.Client, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type StoreType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Settlement events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Month report export
	Writer                WriterType
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
}

// StoreType selects where the ledger documents live.
type StoreType string

const (
	SQLiteBackend StoreType = "sqlite"
	MemoryBackend StoreType = "memory"
)

func (st StoreType) String() string {
	return string(st)
}

func (st StoreType) IsValid() bool {
	switch st {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// WriterType selects where settled months are exported.
type WriterType string

const (
	GoogleWriter WriterType = "google"
	MemoryWriter WriterType = "memory"
)

func (wt WriterType) IsValid() bool {
	return wt == GoogleWriter || wt == MemoryWriter
}
