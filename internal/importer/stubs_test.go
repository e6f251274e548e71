package importer

import (
	"context"
	"sync"
	"time"

	"github.com/sellerbridge/marketsync/internal/domain"
	"github.com/sellerbridge/marketsync/internal/repository"

	"github.com/google/uuid"
)

type stubListingRepo struct {
	mu        sync.Mutex
	listings  map[string]domain.Listing
	createErr map[string]error
	lookupErr map[string]error
	creates   int
	updates   int
	deletes   int
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{
		listings:  make(map[string]domain.Listing),
		createErr: make(map[string]error),
		lookupErr: make(map[string]error),
	}
}

func listingKey(accountID uuid.UUID, itemNumber string) string {
	return accountID.String() + "/" + itemNumber
}

func (s *stubListingRepo) Create(_ context.Context, listing domain.Listing) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createErr[listing.ItemNumber]; err != nil {
		return domain.Listing{}, err
	}
	s.creates++
	s.listings[listingKey(listing.AccountID, listing.ItemNumber)] = listing
	return listing, nil
}

func (s *stubListingRepo) Update(_ context.Context, listing domain.Listing) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := listingKey(listing.AccountID, listing.ItemNumber)
	if _, ok := s.listings[key]; !ok {
		return domain.Listing{}, repository.ErrNotFound
	}
	s.updates++
	s.listings[key] = listing
	return listing, nil
}

func (s *stubListingRepo) GetByItemNumber(_ context.Context, accountID uuid.UUID, itemNumber string) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lookupErr[itemNumber]; err != nil {
		return domain.Listing{}, err
	}
	listing, ok := s.listings[listingKey(accountID, itemNumber)]
	if !ok {
		return domain.Listing{}, repository.ErrNotFound
	}
	return listing, nil
}

func (s *stubListingRepo) ListByAccount(_ context.Context, accountID uuid.UUID, _ int, _ int) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Listing
	for _, listing := range s.listings {
		if listing.AccountID == accountID {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (s *stubListingRepo) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	listings, _ := s.ListByAccount(ctx, accountID, 0, 0)
	return int64(len(listings)), nil
}

func (s *stubListingRepo) DeleteByAccount(_ context.Context, accountID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, listing := range s.listings {
		if listing.AccountID == accountID {
			delete(s.listings, key)
			deleted++
		}
	}
	s.deletes += int(deleted)
	return deleted, nil
}

type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]domain.Order
	creates int
	updates int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]domain.Order)}
}

func (s *stubOrderRepo) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	s.orders[listingKey(order.AccountID, order.ExternalOrderID)] = order
	return order, nil
}

func (s *stubOrderRepo) Update(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := listingKey(order.AccountID, order.ExternalOrderID)
	if _, ok := s.orders[key]; !ok {
		return domain.Order{}, repository.ErrNotFound
	}
	s.updates++
	s.orders[key] = order
	return order, nil
}

func (s *stubOrderRepo) GetByExternalID(_ context.Context, accountID uuid.UUID, externalOrderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[listingKey(accountID, externalOrderID)]
	if !ok {
		return domain.Order{}, repository.ErrNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) ListByAccount(_ context.Context, accountID uuid.UUID, _ int, _ int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Order
	for _, order := range s.orders {
		if order.AccountID == accountID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	orders, _ := s.ListByAccount(ctx, accountID, 0, 0)
	return int64(len(orders)), nil
}

func (s *stubOrderRepo) DeleteByAccount(_ context.Context, accountID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, order := range s.orders {
		if order.AccountID == accountID {
			delete(s.orders, key)
			deleted++
		}
	}
	return deleted, nil
}

type stubRunRepo struct {
	mu          sync.Mutex
	runs        map[uuid.UUID]domain.SyncRun
	transitions []domain.SyncRunStatus
}

func newStubRunRepo() *stubRunRepo {
	return &stubRunRepo{runs: make(map[uuid.UUID]domain.SyncRun)}
}

func (s *stubRunRepo) Create(_ context.Context, run domain.SyncRun) (domain.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	s.transitions = append(s.transitions, run.Status)
	return run, nil
}

func (s *stubRunRepo) MarkProcessing(_ context.Context, id uuid.UUID, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok || run.Status != domain.SyncRunPending {
		return repository.ErrRunFinished
	}
	run.Status = domain.SyncRunProcessing
	run.StartedAt = &startedAt
	s.runs[id] = run
	s.transitions = append(s.transitions, run.Status)
	return nil
}

func (s *stubRunRepo) Finish(_ context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.runs[run.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status.Terminal() {
		return repository.ErrRunFinished
	}
	s.runs[run.ID] = run
	s.transitions = append(s.transitions, run.Status)
	return nil
}

func (s *stubRunRepo) GetByID(_ context.Context, id uuid.UUID) (domain.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return domain.SyncRun{}, repository.ErrNotFound
	}
	return run, nil
}

func (s *stubRunRepo) List(_ context.Context, _ repository.SyncRunFilter) ([]domain.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SyncRun
	for _, run := range s.runs {
		out = append(out, run)
	}
	return out, nil
}

// single returns the run when exactly one exists.
func (s *stubRunRepo) single() (domain.SyncRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) != 1 {
		return domain.SyncRun{}, false
	}
	for _, run := range s.runs {
		return run, true
	}
	return domain.SyncRun{}, false
}

type stubLogRepo struct {
	mu      sync.Mutex
	entries []domain.ImportLogEntry
}

func newStubLogRepo() *stubLogRepo {
	return &stubLogRepo{}
}

func (s *stubLogRepo) RecordBatch(_ context.Context, entries []domain.ImportLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *stubLogRepo) ListByRun(_ context.Context, runID uuid.UUID, _ int, _ int) ([]domain.ImportLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ImportLogEntry
	for _, entry := range s.entries {
		if entry.RunID == runID {
			out = append(out, entry)
		}
	}
	return out, nil
}
