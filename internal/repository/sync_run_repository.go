package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type syncRunRepository struct {
	pool *pgxpool.Pool
}

// NewSyncRunRepository wires a sync run repository backed by pgxpool.
func NewSyncRunRepository(pool *pgxpool.Pool) SyncRunRepository {
	return &syncRunRepository{pool: pool}
}

const syncRunColumns = `id, account_id, record_type, file_name, file_size, total_rows,
	valid_rows, invalid_rows, processed_rows, status, error_message,
	started_at, finished_at, created_at, updated_at`

func (r *syncRunRepository) Create(ctx context.Context, run domain.SyncRun) (domain.SyncRun, error) {
	if r.pool == nil {
		return domain.SyncRun{}, fmt.Errorf("sync run repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO sync_runs (id, account_id, record_type, file_name, file_size, total_rows,
			valid_rows, invalid_rows, processed_rows, status, error_message,
			started_at, finished_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		run.ID,
		run.AccountID,
		run.RecordType,
		run.FileName,
		run.FileSize,
		run.TotalRows,
		run.ValidRows,
		run.InvalidRows,
		run.ProcessedRows,
		run.Status,
		nullIfEmpty(run.ErrorMessage),
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("failed to create sync run: %w", err)
	}

	return run, nil
}

func (r *syncRunRepository) MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("sync run repository not initialized")
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE sync_runs
		 SET status = $2, started_at = $3, updated_at = now()
		 WHERE id = $1 AND status = $4`,
		id,
		domain.SyncRunProcessing,
		startedAt,
		domain.SyncRunPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark sync run processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunFinished
	}

	return nil
}

func (r *syncRunRepository) Finish(ctx context.Context, run domain.SyncRun) error {
	if r.pool == nil {
		return fmt.Errorf("sync run repository not initialized")
	}
	if !run.Status.Terminal() {
		return fmt.Errorf("finish requires a terminal status, got %q", run.Status)
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE sync_runs
		 SET status = $2, total_rows = $3, valid_rows = $4, invalid_rows = $5,
		     processed_rows = $6, error_message = $7, finished_at = $8, updated_at = now()
		 WHERE id = $1 AND status IN ($9, $10)`,
		run.ID,
		run.Status,
		run.TotalRows,
		run.ValidRows,
		run.InvalidRows,
		run.ProcessedRows,
		nullIfEmpty(run.ErrorMessage),
		run.FinishedAt,
		domain.SyncRunPending,
		domain.SyncRunProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunFinished
	}

	return nil
}

func (r *syncRunRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.SyncRun, error) {
	if r.pool == nil {
		return domain.SyncRun{}, fmt.Errorf("sync run repository not initialized")
	}

	row := r.pool.QueryRow(ctx, `SELECT `+syncRunColumns+` FROM sync_runs WHERE id = $1`, id)
	run, err := scanSyncRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SyncRun{}, ErrNotFound
		}
		return domain.SyncRun{}, fmt.Errorf("failed to get sync run: %w", err)
	}
	return run, nil
}

func (r *syncRunRepository) List(ctx context.Context, filter SyncRunFilter) ([]domain.SyncRun, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("sync run repository not initialized")
	}

	conditions := []string{}
	args := []any{}
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AccountID != nil {
		conditions = append(conditions, "account_id = "+arg(*filter.AccountID))
	}
	if filter.RecordType != nil {
		conditions = append(conditions, "record_type = "+arg(*filter.RecordType))
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at < "+arg(*filter.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + syncRunColumns + ` FROM sync_runs` + where +
		` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.SyncRun{}
	for rows.Next() {
		run, scanErr := scanSyncRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", scanErr)
		}
		runs = append(runs, run)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", rowsErr)
	}

	return runs, nil
}

func scanSyncRun(row pgx.Row) (domain.SyncRun, error) {
	var (
		run          domain.SyncRun
		errorMessage pgtype.Text
		startedAt    pgtype.Timestamptz
		finishedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&run.ID,
		&run.AccountID,
		&run.RecordType,
		&run.FileName,
		&run.FileSize,
		&run.TotalRows,
		&run.ValidRows,
		&run.InvalidRows,
		&run.ProcessedRows,
		&run.Status,
		&errorMessage,
		&startedAt,
		&finishedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		return domain.SyncRun{}, err
	}

	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		value := startedAt.Time
		run.StartedAt = &value
	}
	if finishedAt.Valid {
		value := finishedAt.Time
		run.FinishedAt = &value
	}

	return run, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
