package host

import (
	"sync"
	"time"

	"github.com/google/go-github/v54/github"
)

// DefaultQuotaThreshold is the remaining-call floor below which new
// mutations are rejected. Reads always pass.
const DefaultQuotaThreshold = 20

// QuotaTracker follows the host's rate limit across every call made through
// one client. It is updated from response headers and consulted before any
// non-idempotent operation.
type QuotaTracker struct {
	mu        sync.Mutex
	threshold int
	limit     int
	remaining int
	resetAt   time.Time
	known     bool
}

func NewQuotaTracker(threshold int) *QuotaTracker {
	if threshold <= 0 {
		threshold = DefaultQuotaThreshold
	}
	return &QuotaTracker{threshold: threshold}
}

// Update records the quota reported on a response. A zero Rate (go-github
// returns one when headers are absent) is ignored.
func (q *QuotaTracker) Update(rate github.Rate) {
	if rate.Limit == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.limit = rate.Limit
	q.remaining = rate.Remaining
	q.resetAt = rate.Reset.Time
	q.known = true
}

// GuardMutation fails with ErrRateLimitCritical when the tracked quota is
// below the safety threshold. Unknown quota passes; the first response will
// populate it.
func (q *QuotaTracker) GuardMutation() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.known && q.remaining < q.threshold {
		return ErrRateLimitCritical
	}
	return nil
}

// Snapshot returns the last observed remaining/limit pair. ok is false until
// the first response has been seen.
func (q *QuotaTracker) Snapshot() (remaining, limit int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining, q.limit, q.known
}
