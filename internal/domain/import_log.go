package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportLogLevel distinguishes blocking findings from informational ones.
type ImportLogLevel string

const (
	ImportLogError   ImportLogLevel = "error"
	ImportLogWarning ImportLogLevel = "warning"
)

// ImportLogEntry captures one row-level finding from an import run so a human
// can fix and re-submit just the offending rows.
type ImportLogEntry struct {
	ID         uuid.UUID      `json:"id"`
	RunID      uuid.UUID      `json:"run_id"`
	AccountID  uuid.UUID      `json:"account_id"`
	RecordType RecordType     `json:"record_type"`
	RowNumber  *int           `json:"row_number,omitempty"`
	Level      ImportLogLevel `json:"level"`
	Message    string         `json:"message"`
	CreatedAt  time.Time      `json:"created_at"`
}
