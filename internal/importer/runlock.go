package importer

import (
	"sync"

	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
)

// runLocks serializes runs per (account, record type) so two concurrent runs
// cannot race each other on natural-key resolution. Runs for different
// accounts or types proceed fully in parallel.
type runLocks struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newRunLocks() *runLocks {
	return &runLocks{active: make(map[string]struct{})}
}

func lockKey(accountID uuid.UUID, recordType domain.RecordType) string {
	return accountID.String() + "/" + string(recordType)
}

// tryAcquire reports whether the (account, type) slot was free and claims it.
func (l *runLocks) tryAcquire(accountID uuid.UUID, recordType domain.RecordType) bool {
	key := lockKey(accountID, recordType)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[key]; busy {
		return false
	}
	l.active[key] = struct{}{}
	return true
}

func (l *runLocks) release(accountID uuid.UUID, recordType domain.RecordType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, lockKey(accountID, recordType))
}
