package host

import (
	"github.com/pkg/errors"
)

// Sentinel errors for the host boundary. Callers match them with errors.Is
// after unwinding any wrapping added at the call site.
var (
	// ErrHostUnavailable covers network failure and 5xx responses.
	ErrHostUnavailable = errors.New("repository host unavailable")

	// ErrAuthFailed covers rejected or missing credentials.
	ErrAuthFailed = errors.New("repository host rejected credentials")

	// ErrNotFound means the pull request (or ref) does not exist.
	ErrNotFound = errors.New("pull request not found")

	// ErrNotMergeable is the host refusing the merge call outright.
	ErrNotMergeable = errors.New("pull request is not mergeable")

	// ErrHeadChanged means the head moved between the state read and the
	// merge call. The caller should restart the check-act sequence once.
	ErrHeadChanged = errors.New("head branch changed between check and merge")

	// ErrRateLimitCritical is raised by the quota guard before a mutation
	// when remaining quota is below the safety threshold.
	ErrRateLimitCritical = errors.New("rate limit quota below safety threshold")
)
