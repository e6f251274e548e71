package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup by natural key or id matches nothing.
var ErrNotFound = errors.New("not found")

// ErrRunFinished is returned when a terminal update targets a run that is no
// longer in the processing state. Terminal state is set at most once.
var ErrRunFinished = errors.New("sync run already finished")

// ListingRepository defines persistence for marketplace listings.
type ListingRepository interface {
	Create(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	Update(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	GetByItemNumber(ctx context.Context, accountID uuid.UUID, itemNumber string) (domain.Listing, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int, offset int) ([]domain.Listing, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// OrderRepository defines persistence for marketplace orders and their line
// items.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	Update(ctx context.Context, order domain.Order) (domain.Order, error)
	GetByExternalID(ctx context.Context, accountID uuid.UUID, externalOrderID string) (domain.Order, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int, offset int) ([]domain.Order, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// SyncRunFilter narrows the persisted audit surface by account, type and date
// range.
type SyncRunFilter struct {
	AccountID  *uuid.UUID
	RecordType *domain.RecordType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// SyncRunRepository owns the SyncRun lifecycle records.
type SyncRunRepository interface {
	Create(ctx context.Context, run domain.SyncRun) (domain.SyncRun, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	// Finish persists the terminal state and final counts. It fails with
	// ErrRunFinished unless the run is currently processing.
	Finish(ctx context.Context, run domain.SyncRun) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.SyncRun, error)
	List(ctx context.Context, filter SyncRunFilter) ([]domain.SyncRun, error)
}

// ImportLogRepository stores row-level import findings for observability.
type ImportLogRepository interface {
	RecordBatch(ctx context.Context, entries []domain.ImportLogEntry) error
	ListByRun(ctx context.Context, runID uuid.UUID, limit int, offset int) ([]domain.ImportLogEntry, error)
}
