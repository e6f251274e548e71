package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sellerbridge/marketsync/internal/domain"
	"github.com/sellerbridge/marketsync/internal/logging"
	"github.com/sellerbridge/marketsync/internal/repository"

	"github.com/google/uuid"
)

// Options bound one run of the pipeline.
type Options struct {
	MaxRows     int
	MaxFileSize int64
	ChunkSize   int
	Workers     int
	RunTimeout  time.Duration
}

// Service ingests marketplace export files into persisted listings and
// orders, tracking every run in the sync run audit trail.
type Service struct {
	listings  repository.ListingRepository
	orders    repository.OrderRepository
	runs      repository.SyncRunRepository
	logs      repository.ImportLogRepository
	artifacts *ArtifactStore
	locks     *runLocks
	opts      Options
}

// NewService creates a new import service.
func NewService(
	listings repository.ListingRepository,
	orders repository.OrderRepository,
	runs repository.SyncRunRepository,
	logs repository.ImportLogRepository,
	artifacts *ArtifactStore,
	opts Options,
) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Service{
		listings:  listings,
		orders:    orders,
		runs:      runs,
		logs:      logs,
		artifacts: artifacts,
		locks:     newRunLocks(),
		opts:      opts,
	}
}

// Request describes one import: the uploaded bytes plus the declared contract
// and reconciliation mode.
type Request struct {
	AccountID  uuid.UUID
	RecordType domain.RecordType
	FileName   string
	// ReplaceExisting overwrites the mutable fields of records whose natural
	// key already exists. Without it, such records are counted as duplicates
	// and skipped.
	ReplaceExisting bool
	// PurgeExisting bulk-deletes the account's prior entities of this type
	// before processing. This is a run-level full-replace mode, distinct from
	// per-record overwrite, and cannot be combined with DryRun.
	PurgeExisting bool
	// DryRun performs every step except the actual writes.
	DryRun bool
	Data   io.Reader
}

// Import runs the full pipeline for one uploaded file and returns the
// processing result. Intake, header, and systemic failures are returned as
// errors; per-row findings are accumulated in the result, never thrown.
func (s *Service) Import(ctx context.Context, req Request) (ProcessingResult, error) {
	var result ProcessingResult
	result.Errors = []RowMessage{}
	result.Warnings = []RowMessage{}

	if req.AccountID == uuid.Nil {
		return result, errors.New("account id is required")
	}
	contract, ok := ContractFor(req.RecordType)
	if !ok {
		return result, fmt.Errorf("unknown record type %q", req.RecordType)
	}
	if req.Data == nil {
		return result, errors.New("data reader is required")
	}
	if req.PurgeExisting && req.DryRun {
		return result, ErrPurgeDryRun
	}

	if !s.locks.tryAcquire(req.AccountID, req.RecordType) {
		return result, ErrRunInProgress
	}
	defer s.locks.release(req.AccountID, req.RecordType)

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return result, &FileIntakeError{Reason: "failed to read upload", Err: err}
	}
	if len(payload) == 0 {
		return result, &FileIntakeError{Reason: "file is empty"}
	}
	if s.opts.MaxFileSize > 0 && int64(len(payload)) > s.opts.MaxFileSize {
		return result, &FileIntakeError{
			Reason: fmt.Sprintf("file size %d exceeds limit %d", len(payload), s.opts.MaxFileSize),
		}
	}

	run := domain.NewSyncRun(req.AccountID, req.RecordType, req.FileName, int64(len(payload)))
	if run, err = s.runs.Create(ctx, run); err != nil {
		return result, fmt.Errorf("failed to create sync run: %w", err)
	}

	artifactPath, err := s.artifacts.Save(run.ID, req.FileName, payload)
	if err != nil {
		runErr := &RunFailureError{Stage: "intake", Err: err}
		s.finalize(ctx, &run, &result, "", domain.SyncRunFailed, runErr.Error())
		return result, runErr
	}

	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	started := time.Now()
	if err := s.runs.MarkProcessing(ctx, run.ID, started); err != nil {
		runErr := &RunFailureError{Stage: "intake", Err: err}
		s.finalize(ctx, &run, &result, artifactPath, domain.SyncRunFailed, runErr.Error())
		return result, runErr
	}
	run.Status = domain.SyncRunProcessing
	run.StartedAt = &started

	table, err := DecodeTable(bytes.NewReader(payload), req.FileName, s.opts.MaxRows)
	if err != nil {
		s.finalize(ctx, &run, &result, artifactPath, domain.SyncRunFailed, err.Error())
		return result, err
	}

	report := CheckHeader(table.RawHeaders, contract)
	if !report.IsValid {
		hdrErr := &HeaderContractError{
			RecordType: req.RecordType,
			Missing:    report.Missing,
			Extra:      report.Extra,
		}
		s.finalize(ctx, &run, &result, artifactPath, domain.SyncRunFailed, hdrErr.Error())
		return result, hdrErr
	}

	result.TotalRecords = len(table.Rows)

	processErr := s.process(ctx, contract, table, req, &result)

	result.ProcessedRecords = result.Summary.Created + result.Summary.Updated +
		result.Summary.Skipped + result.Summary.Failed

	status := domain.SyncRunCompleted
	message := ""
	switch {
	case processErr != nil:
		status = domain.SyncRunFailed
		message = processErr.Error()
	case len(result.Errors) > 0:
		status = domain.SyncRunFailed
		message = fmt.Sprintf("row %d: %s", result.Errors[0].RowNumber, result.Errors[0].Message)
	}

	s.finalize(ctx, &run, &result, artifactPath, status, message)

	return result, processErr
}

// process dispatches to the validator+transformer pair registered for the
// declared record type, then reconciles the transformed records.
func (s *Service) process(ctx context.Context, contract Contract, table Table, req Request, result *ProcessingResult) error {
	if req.PurgeExisting {
		if err := s.purge(ctx, req); err != nil {
			return &RunFailureError{Stage: "purge", Err: err}
		}
	}

	opts := ReconcileOptions{
		AccountID:       req.AccountID,
		ReplaceExisting: req.ReplaceExisting,
		DryRun:          req.DryRun,
		ChunkSize:       s.opts.ChunkSize,
	}
	idx := makeHeaderIndex(table.RawHeaders)

	switch contract.RecordType {
	case domain.RecordTypeListing:
		now := time.Now()
		records := parallelMap(table.Rows, s.opts.Workers, func(row Row) ListingRecord {
			record := ValidateListingRow(row, idx)
			ApplyListingRules(&record, now)
			return record
		})

		var items []listingItem
		for _, record := range records {
			for _, warning := range record.Warnings {
				result.addWarning(record.RowNumber, warning)
			}
			if len(record.Errors) > 0 {
				result.InvalidRecords++
				for _, message := range record.Errors {
					result.addError(record.RowNumber, message)
				}
				continue
			}
			result.ValidRecords++
			items = append(items, listingItem{row: record.RowNumber, listing: record.ToDomain(req.AccountID)})
		}

		if err := reconcileListings(ctx, s.listings, items, opts, result); err != nil {
			return &RunFailureError{Stage: "persistence", Err: err}
		}

	case domain.RecordTypeOrder:
		records := parallelMap(table.Rows, s.opts.Workers, func(row Row) OrderRecord {
			record := ValidateOrderRow(row, idx)
			ApplyOrderRules(&record)
			return record
		})

		var items []orderItem
		for _, record := range records {
			for _, warning := range record.Warnings {
				result.addWarning(record.RowNumber, warning)
			}
			if len(record.Errors) > 0 {
				result.InvalidRecords++
				for _, message := range record.Errors {
					result.addError(record.RowNumber, message)
				}
				continue
			}
			result.ValidRecords++
			items = append(items, orderItem{row: record.RowNumber, order: record.ToDomain(req.AccountID)})
		}

		if err := reconcileOrders(ctx, s.orders, items, opts, result); err != nil {
			return &RunFailureError{Stage: "persistence", Err: err}
		}
	}

	return nil
}

func (s *Service) purge(ctx context.Context, req Request) error {
	switch req.RecordType {
	case domain.RecordTypeListing:
		_, err := s.listings.DeleteByAccount(ctx, req.AccountID)
		return err
	case domain.RecordTypeOrder:
		_, err := s.orders.DeleteByAccount(ctx, req.AccountID)
		return err
	default:
		return fmt.Errorf("unknown record type %q", req.RecordType)
	}
}

// finalize durably persists the terminal run state, records the row-level
// audit entries, and only then relocates the source artifact. It uses its own
// context so a timed-out run still reaches a terminal state.
func (s *Service) finalize(ctx context.Context, run *domain.SyncRun, result *ProcessingResult, artifactPath string, status domain.SyncRunStatus, message string) {
	logger := logging.FromContext(ctx).With("run_id", run.ID, "account_id", run.AccountID)

	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	finished := time.Now()
	run.Status = status
	run.ErrorMessage = message
	run.TotalRows = result.TotalRecords
	run.ValidRows = result.ValidRecords
	run.InvalidRows = result.InvalidRecords
	run.ProcessedRows = result.ProcessedRecords
	run.FinishedAt = &finished

	if err := s.runs.Finish(finCtx, *run); err != nil {
		logger.Error("failed to persist terminal run state", "error", err)
		return
	}

	if err := s.logs.RecordBatch(finCtx, buildLogEntries(*run, result)); err != nil {
		logger.Warn("failed to record import log entries", "error", err)
	}

	// The artifact moves only after the terminal state is durable.
	if artifactPath != "" {
		var err error
		if status == domain.SyncRunCompleted {
			err = s.artifacts.MoveProcessed(artifactPath)
		} else {
			err = s.artifacts.MoveFailed(artifactPath)
		}
		if err != nil {
			logger.Warn("failed to relocate artifact", "error", err)
		}
	}

	logger.Info("import run finished",
		"status", status,
		"total", run.TotalRows,
		"valid", run.ValidRows,
		"invalid", run.InvalidRows,
		"duration", run.Duration(),
	)
}

func buildLogEntries(run domain.SyncRun, result *ProcessingResult) []domain.ImportLogEntry {
	entries := make([]domain.ImportLogEntry, 0, len(result.Errors)+len(result.Warnings))
	add := func(level domain.ImportLogLevel, messages []RowMessage) {
		for _, m := range messages {
			row := m.RowNumber
			entries = append(entries, domain.ImportLogEntry{
				RunID:      run.ID,
				AccountID:  run.AccountID,
				RecordType: run.RecordType,
				RowNumber:  &row,
				Level:      level,
				Message:    m.Message,
			})
		}
	}
	add(domain.ImportLogError, result.Errors)
	add(domain.ImportLogWarning, result.Warnings)
	return entries
}

// ListRuns exposes the persisted audit surface.
func (s *Service) ListRuns(ctx context.Context, filter repository.SyncRunFilter) ([]domain.SyncRun, error) {
	return s.runs.List(ctx, filter)
}

// GetRun returns one run by id.
func (s *Service) GetRun(ctx context.Context, runID uuid.UUID) (domain.SyncRun, error) {
	return s.runs.GetByID(ctx, runID)
}

// RunLogs returns the row-level findings recorded for one run.
func (s *Service) RunLogs(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.ImportLogEntry, error) {
	return s.logs.ListByRun(ctx, runID, limit, offset)
}

// parallelMap validates rows on a bounded worker pool. Output order matches
// input order regardless of scheduling.
func parallelMap[T any](rows []Row, workers int, fn func(Row) T) []T {
	out := make([]T, len(rows))
	if workers <= 1 || len(rows) < 2 {
		for i, row := range rows {
			out[i] = fn(row)
		}
		return out
	}

	if workers > len(rows) {
		workers = len(rows)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = fn(rows[i])
			}
		}()
	}
	for i := range rows {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}
