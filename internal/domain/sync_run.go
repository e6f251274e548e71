package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncRunStatus is the lifecycle state of one ingestion attempt.
type SyncRunStatus string

const (
	SyncRunPending    SyncRunStatus = "pending"
	SyncRunProcessing SyncRunStatus = "processing"
	SyncRunCompleted  SyncRunStatus = "completed"
	SyncRunFailed     SyncRunStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s SyncRunStatus) Terminal() bool {
	return s == SyncRunCompleted || s == SyncRunFailed
}

// SyncRun identifies one end-to-end attempt to ingest one source artifact for
// one account and one record type. Created pending at intake, moved to
// processing when decoding starts, and to exactly one terminal state when
// processing ends.
type SyncRun struct {
	ID            uuid.UUID     `json:"id"`
	AccountID     uuid.UUID     `json:"account_id"`
	RecordType    RecordType    `json:"record_type"`
	FileName      string        `json:"file_name"`
	FileSize      int64         `json:"file_size"`
	TotalRows     int           `json:"total_rows"`
	ValidRows     int           `json:"valid_rows"`
	InvalidRows   int           `json:"invalid_rows"`
	ProcessedRows int           `json:"processed_rows"`
	Status        SyncRunStatus `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	FinishedAt    *time.Time    `json:"finished_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewSyncRun creates a pending run for an uploaded artifact.
func NewSyncRun(accountID uuid.UUID, recordType RecordType, fileName string, fileSize int64) SyncRun {
	now := time.Now()
	return SyncRun{
		ID:         uuid.New(),
		AccountID:  accountID,
		RecordType: recordType,
		FileName:   fileName,
		FileSize:   fileSize,
		Status:     SyncRunPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Duration returns the elapsed processing time, or zero while the run is not
// finished.
func (r SyncRun) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}
