package repository

import (
	"context"
	"fmt"

	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importLogRepository struct {
	pool *pgxpool.Pool
}

// NewImportLogRepository wires a row-level import log repository backed by
// pgxpool.
func NewImportLogRepository(pool *pgxpool.Pool) ImportLogRepository {
	return &importLogRepository{pool: pool}
}

func (r *importLogRepository) RecordBatch(ctx context.Context, entries []domain.ImportLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("import log repository not initialized")
	}
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		var rowNumber any
		if entry.RowNumber != nil {
			rowNumber = *entry.RowNumber
		}
		batch.Queue(
			`INSERT INTO import_logs (run_id, account_id, record_type, row_number, level, message)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			entry.RunID,
			entry.AccountID,
			entry.RecordType,
			rowNumber,
			entry.Level,
			entry.Message,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to record import log batch: %w", err)
		}
	}

	return nil
}

func (r *importLogRepository) ListByRun(ctx context.Context, runID uuid.UUID, limit int, offset int) ([]domain.ImportLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, run_id, account_id, record_type, row_number, level, message, created_at
		 FROM import_logs
		 WHERE run_id = $1
		 ORDER BY row_number NULLS FIRST, created_at
		 LIMIT $2 OFFSET $3`,
		runID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	entries := []domain.ImportLogEntry{}
	for rows.Next() {
		var (
			entry     domain.ImportLogEntry
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.AccountID,
			&entry.RecordType,
			&rowNumber,
			&entry.Level,
			&entry.Message,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", scanErr)
		}

		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		entries = append(entries, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", rowsErr)
	}

	return entries, nil
}
