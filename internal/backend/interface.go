package backend

import (
	"context"

	"orcamento/internal/amqp"
	"orcamento/internal/services"
	"orcamento/internal/sheets"
	"orcamento/internal/slot"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the slot the ledger is persisted to plus the
// optional commit-event client.
type BackendResult struct {
	Slot slot.Slot
	// Versioner is set when the slot counts its own writes.
	Versioner services.Versioner
	// AMQP is nil when AMQP is not configured or unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// ServiceOptions wires the result into a LedgerService.
func (r *BackendResult) ServiceOptions() []services.ServiceOption {
	var opts []services.ServiceOption
	if r.AMQP != nil {
		opts = append(opts, services.WithPublisher(r.AMQP))
	}
	if r.Versioner != nil {
		opts = append(opts, services.WithVersioner(r.Versioner))
	}
	return opts
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateSummaryWriter(ctx context.Context, config Config) (sheets.SummaryWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Commit events, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Summary mirror, optional
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	GoogleOAuthClientFile string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenFile  string
	GoogleOAuthTokenJSON  string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
