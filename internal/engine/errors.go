package engine

import (
	"github.com/pkg/errors"
)

var (
	// ErrReadinessIndeterminate means the host never finished computing the
	// readiness signal within the retry budget.
	ErrReadinessIndeterminate = errors.New("merge readiness still computing after exhausting retries")

	// ErrApprovalRequired gates the destructive rollback mode. It is never
	// downgraded to a warning.
	ErrApprovalRequired = errors.New("force reset rewrites shared history and requires an approval token")

	// ErrInvalidRequest covers malformed caller input (unknown strategy,
	// unknown rollback mode, missing merge commit).
	ErrInvalidRequest = errors.New("invalid request")
)
