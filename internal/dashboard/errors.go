package dashboard

import (
	"errors"
	"fmt"

	"marketdash/internal/provider"
)

var (
	// ErrEmptyResult means the upstream answered but nothing survived normalization.
	ErrEmptyResult = errors.New("no displayable assets")
	// ErrStale means a newer refresh superseded this one and its result was discarded.
	ErrStale = errors.New("superseded by a newer refresh")
)

// FetchError reports a failed upstream call. The cause is kept verbatim.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Op, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether re-triggering the same request may succeed.
func (e *FetchError) Retryable() bool {
	return !errors.Is(e.Err, provider.ErrNotFound) && !errors.Is(e.Err, provider.ErrUnauthorized)
}

// IsRetryable reports whether err is a FetchError worth retrying.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}
