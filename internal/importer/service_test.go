package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
)

type serviceFixture struct {
	service   *Service
	listings  *stubListingRepo
	orders    *stubOrderRepo
	runs      *stubRunRepo
	logs      *stubLogRepo
	incoming  string
	processed string
	errorDir  string
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	base := t.TempDir()
	incoming := filepath.Join(base, "incoming")
	processed := filepath.Join(base, "processed")
	errorDir := filepath.Join(base, "error")

	artifacts, err := NewArtifactStore(incoming, processed, errorDir)
	if err != nil {
		t.Fatalf("failed to create artifact store: %v", err)
	}

	f := &serviceFixture{
		listings:  newStubListingRepo(),
		orders:    newStubOrderRepo(),
		runs:      newStubRunRepo(),
		logs:      newStubLogRepo(),
		incoming:  incoming,
		processed: processed,
		errorDir:  errorDir,
	}
	f.service = NewService(f.listings, f.orders, f.runs, f.logs, artifacts, Options{
		MaxRows:   1000,
		ChunkSize: 100,
		Workers:   2,
	})
	return f
}

func (f *serviceFixture) filesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	return names
}

const listingHeader = "Item number,Title,Custom label (SKU),Available quantity,Sold quantity," +
	"Current price,Currency,Start date,End date,Category,Condition,Format\n"

func listingRequest(accountID uuid.UUID, csv string) Request {
	return Request{
		AccountID:  accountID,
		RecordType: domain.RecordTypeListing,
		FileName:   "listings.csv",
		Data:       strings.NewReader(csv),
	}
}

func TestImportMixedValidity(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := listingHeader +
		"101,Vintage Camera,CAM-01,5,1,129.99,USD,2024-01-15,2024-12-31,Cameras,Used,Fixed price\n" +
		"102,Broken Row,,-oops,,19.99,USD,2024-01-15,2024-12-31,Tools,,\n" +
		"103,Widget,,3,,9.99,USD,2024-01-15,2024-12-31,Tools,,\n"

	result, err := f.service.Import(context.Background(), listingRequest(accountID, csv))
	if err != nil {
		t.Fatalf("row-level findings must not surface as errors: %v", err)
	}

	if result.TotalRecords != 3 {
		t.Errorf("expected 3 total, got %d", result.TotalRecords)
	}
	if result.ValidRecords != 2 || result.InvalidRecords != 1 {
		t.Errorf("expected 2 valid / 1 invalid, got %d / %d",
			result.ValidRecords, result.InvalidRecords)
	}
	if result.Summary.Created != 2 {
		t.Errorf("expected 2 created, got %d", result.Summary.Created)
	}
	if len(result.Errors) == 0 || result.Errors[0].RowNumber != 2 {
		t.Errorf("expected error addressed to row 2, got %v", result.Errors)
	}

	// One invalid row fails the run even though valid rows persisted.
	run, ok := f.runs.single()
	if !ok {
		t.Fatal("expected exactly one run")
	}
	if run.Status != domain.SyncRunFailed {
		t.Errorf("expected failed run, got %s", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Error("expected first row error recorded on the run")
	}
	if run.ValidRows != 2 || run.InvalidRows != 1 {
		t.Errorf("expected run counts 2/1, got %d/%d", run.ValidRows, run.InvalidRows)
	}

	if files := f.filesIn(t, f.errorDir); len(files) != 1 {
		t.Errorf("expected artifact in error dir, got %v", files)
	}
	if files := f.filesIn(t, f.incoming); len(files) != 0 {
		t.Errorf("expected incoming dir empty after finalize, got %v", files)
	}

	entries, err := f.logs.ListByRun(context.Background(), run.ID, 0, 0)
	if err != nil {
		t.Fatalf("failed to list log entries: %v", err)
	}
	if len(entries) == 0 {
		t.Error("expected row-level log entries recorded")
	}
}

func TestImportCleanFileCompletes(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := listingHeader +
		"101,Vintage Camera,,5,,129.99,USD,2024-01-15,2099-12-31,Cameras,,\n"

	result, err := f.service.Import(context.Background(), listingRequest(accountID, csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Created != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected clean create, got %+v", result)
	}

	run, ok := f.runs.single()
	if !ok {
		t.Fatal("expected exactly one run")
	}
	if run.Status != domain.SyncRunCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
	if run.ProcessedRows != 1 {
		t.Errorf("expected 1 processed row, got %d", run.ProcessedRows)
	}

	if files := f.filesIn(t, f.processed); len(files) != 1 {
		t.Errorf("expected artifact in processed dir, got %v", files)
	}
}

func TestImportHeaderContractFailure(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	// Order export without the required Buyer email column.
	csv := "Order number,Buyer username,Item number,Quantity,Sold for,Total price,Sale date\n" +
		"12-34567,collector42,101,1,10.00,10.00,2024-01-15\n"

	result, err := f.service.Import(context.Background(), Request{
		AccountID:  accountID,
		RecordType: domain.RecordTypeOrder,
		FileName:   "orders.csv",
		Data:       strings.NewReader(csv),
	})

	var headerErr *HeaderContractError
	if !errors.As(err, &headerErr) {
		t.Fatalf("expected HeaderContractError, got %v", err)
	}
	if len(headerErr.Missing) != 1 || headerErr.Missing[0] != colBuyerEmail {
		t.Errorf("expected missing [%s], got %v", colBuyerEmail, headerErr.Missing)
	}
	if result.ProcessedRecords != 0 {
		t.Errorf("no row may be processed on a header failure, got %d", result.ProcessedRecords)
	}
	if f.orders.creates != 0 {
		t.Errorf("expected no writes, got %d", f.orders.creates)
	}

	run, ok := f.runs.single()
	if !ok {
		t.Fatal("expected exactly one run")
	}
	if run.Status != domain.SyncRunFailed {
		t.Errorf("expected failed run, got %s", run.Status)
	}
	if files := f.filesIn(t, f.errorDir); len(files) != 1 {
		t.Errorf("expected artifact in error dir, got %v", files)
	}
}

func TestImportIdempotentWithoutReplace(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := listingHeader +
		"101,Vintage Camera,,5,,129.99,USD,2024-01-15,2099-12-31,Cameras,,\n" +
		"102,Widget,,3,,9.99,USD,2024-01-15,2099-12-31,Tools,,\n"

	if _, err := f.service.Import(context.Background(), listingRequest(accountID, csv)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second, err := f.service.Import(context.Background(), listingRequest(accountID, csv))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	if second.Summary.Created != 0 {
		t.Errorf("re-import must create nothing, got %d", second.Summary.Created)
	}
	if second.Summary.Skipped != 2 || second.Duplicates != 2 {
		t.Errorf("expected 2 duplicate skips, got %+v", second)
	}
	if f.listings.updates != 0 {
		t.Errorf("expected no updates without replace, got %d", f.listings.updates)
	}
}

func TestImportReplaceUpdatesExisting(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := listingHeader +
		"101,Vintage Camera,,5,,129.99,USD,2024-01-15,2099-12-31,Cameras,,\n"
	if _, err := f.service.Import(context.Background(), listingRequest(accountID, csv)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	changed := listingHeader +
		"101,Vintage Camera MK II,,2,,149.99,USD,2024-01-15,2099-12-31,Cameras,,\n"
	req := listingRequest(accountID, changed)
	req.ReplaceExisting = true

	result, err := f.service.Import(context.Background(), req)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Summary.Updated != 1 {
		t.Errorf("expected 1 updated, got %+v", result.Summary)
	}

	stored := f.listings.listings[listingKey(accountID, "101")]
	if stored.Title != "Vintage Camera MK II" {
		t.Errorf("expected replaced title, got %q", stored.Title)
	}
}

func TestImportPurgeReplacesDataset(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	first := listingHeader +
		"101,Old Item,,1,,9.99,USD,2024-01-15,2099-12-31,Tools,,\n" +
		"102,Stale Item,,1,,9.99,USD,2024-01-15,2099-12-31,Tools,,\n"
	if _, err := f.service.Import(context.Background(), listingRequest(accountID, first)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := listingHeader +
		"201,Fresh Item,,1,,9.99,USD,2024-01-15,2099-12-31,Tools,,\n"
	req := listingRequest(accountID, second)
	req.PurgeExisting = true

	if _, err := f.service.Import(context.Background(), req); err != nil {
		t.Fatalf("purge import: %v", err)
	}

	if count, _ := f.listings.CountByAccount(context.Background(), accountID); count != 1 {
		t.Errorf("expected only fresh dataset after purge, got %d listings", count)
	}
	if _, err := f.listings.GetByItemNumber(context.Background(), accountID, "101"); err == nil {
		t.Error("expected purged listing gone")
	}
}

func TestImportPurgeRefusedWithDryRun(t *testing.T) {
	f := newServiceFixture(t)

	req := listingRequest(uuid.New(), listingHeader)
	req.PurgeExisting = true
	req.DryRun = true

	_, err := f.service.Import(context.Background(), req)
	if !errors.Is(err, ErrPurgeDryRun) {
		t.Fatalf("expected ErrPurgeDryRun, got %v", err)
	}
}

func TestImportDryRunPersistsNothing(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := listingHeader +
		"101,Vintage Camera,,5,,129.99,USD,2024-01-15,2099-12-31,Cameras,,\n"
	req := listingRequest(accountID, csv)
	req.DryRun = true

	result, err := f.service.Import(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Created != 1 {
		t.Errorf("dry run still reports decisions, got %+v", result.Summary)
	}
	if f.listings.creates != 0 {
		t.Errorf("dry run must not write, got %d creates", f.listings.creates)
	}
}

func TestImportRejectsConcurrentRun(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	if !f.service.locks.tryAcquire(accountID, domain.RecordTypeListing) {
		t.Fatal("failed to acquire lock for setup")
	}
	defer f.service.locks.release(accountID, domain.RecordTypeListing)

	_, err := f.service.Import(context.Background(), listingRequest(accountID, listingHeader+"101,X,,1,,1.00,,2024-01-15,2099-12-31,Tools,,\n"))
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}

	// A different record type for the same account is not blocked.
	orderCSV := "Order number,Buyer username,Buyer email,Item number,Quantity,Sold for,Total price,Sale date\n" +
		"12-34567,collector42,buyer@example.com,101,1,10.00,10.00,2024-01-15\n"
	if _, err := f.service.Import(context.Background(), Request{
		AccountID:  accountID,
		RecordType: domain.RecordTypeOrder,
		FileName:   "orders.csv",
		Data:       strings.NewReader(orderCSV),
	}); err != nil {
		t.Fatalf("other record type must proceed: %v", err)
	}
}

func TestImportEmptyFileRejected(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Import(context.Background(), listingRequest(uuid.New(), ""))
	var intakeErr *FileIntakeError
	if !errors.As(err, &intakeErr) {
		t.Fatalf("expected FileIntakeError for empty file, got %v", err)
	}
}

func TestImportFileSizeCap(t *testing.T) {
	f := newServiceFixture(t)
	f.service.opts.MaxFileSize = 10

	_, err := f.service.Import(context.Background(), listingRequest(uuid.New(), listingHeader))
	var intakeErr *FileIntakeError
	if !errors.As(err, &intakeErr) {
		t.Fatalf("expected FileIntakeError for oversized file, got %v", err)
	}
}

func TestImportRowCapFailsRun(t *testing.T) {
	f := newServiceFixture(t)
	f.service.opts.MaxRows = 1
	accountID := uuid.New()

	csv := listingHeader +
		"101,A,,1,,1.00,,2024-01-15,2099-12-31,Tools,,\n" +
		"102,B,,1,,1.00,,2024-01-15,2099-12-31,Tools,,\n"

	_, err := f.service.Import(context.Background(), listingRequest(accountID, csv))
	if !errors.Is(err, ErrRowCapExceeded) {
		t.Fatalf("expected ErrRowCapExceeded, got %v", err)
	}

	run, ok := f.runs.single()
	if !ok {
		t.Fatal("expected exactly one run")
	}
	if run.Status != domain.SyncRunFailed {
		t.Errorf("expected failed run, got %s", run.Status)
	}
	if f.listings.creates != 0 {
		t.Errorf("expected no writes, got %d", f.listings.creates)
	}
}

func TestImportOrdersEndToEnd(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := "Order number,Buyer username,Buyer name,Buyer email,Item number,Item title," +
		"Quantity,Sold for,Total price,Currency,Sale date,Ship to city\n" +
		"12-34567,collector42,Jamie Smith,buyer@example.com,110553,Vintage Camera," +
		"2,45.50,91.00,GBP,2024-01-15,Leeds\n"

	result, err := f.service.Import(context.Background(), Request{
		AccountID:  accountID,
		RecordType: domain.RecordTypeOrder,
		FileName:   "orders.csv",
		Data:       strings.NewReader(csv),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Created != 1 {
		t.Fatalf("expected 1 created order, got %+v", result.Summary)
	}

	order, err := f.orders.GetByExternalID(context.Background(), accountID, "12-34567")
	if err != nil {
		t.Fatalf("expected persisted order: %v", err)
	}
	if order.BuyerEmail != "buyer@example.com" {
		t.Errorf("buyer email: got %q", order.BuyerEmail)
	}
	if order.ShipTo.City != "Leeds" {
		t.Errorf("ship to city: got %q", order.ShipTo.City)
	}
	if len(order.LineItems) != 1 || order.LineItems[0].Quantity != 2 {
		t.Errorf("expected one line item with quantity 2, got %+v", order.LineItems)
	}

	run, ok := f.runs.single()
	if !ok {
		t.Fatal("expected exactly one run")
	}
	if run.Status != domain.SyncRunCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
}

func TestImportAbortedRunStillReachesTerminalState(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	csv := listingHeader +
		"101,Vintage Camera,,5,,129.99,USD,2024-01-15,2099-12-31,Cameras,,\n"
	_, err := f.service.Import(ctx, listingRequest(accountID, csv))

	var runErr *RunFailureError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunFailureError on cancelled context, got %v", err)
	}

	// Finalization runs on its own context, so the run record is terminal
	// even though the import context is dead.
	run, ok := f.runs.single()
	if !ok {
		t.Fatal("expected exactly one run")
	}
	if run.Status != domain.SyncRunFailed {
		t.Errorf("expected failed run, got %s", run.Status)
	}
	if files := f.filesIn(t, f.errorDir); len(files) != 1 {
		t.Errorf("expected artifact in error dir, got %v", files)
	}
}

func TestImportStatusTransitions(t *testing.T) {
	f := newServiceFixture(t)
	accountID := uuid.New()

	csv := listingHeader +
		"101,Vintage Camera,,5,,129.99,USD,2024-01-15,2099-12-31,Cameras,,\n"
	if _, err := f.service.Import(context.Background(), listingRequest(accountID, csv)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.SyncRunStatus{
		domain.SyncRunPending,
		domain.SyncRunProcessing,
		domain.SyncRunCompleted,
	}
	if len(f.runs.transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, f.runs.transitions)
	}
	for i, status := range want {
		if f.runs.transitions[i] != status {
			t.Errorf("transition %d: expected %s, got %s", i, status, f.runs.transitions[i])
		}
	}
}
