package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WorkItem identifies one verse to process. Immutable once enqueued.
type WorkItem struct {
	ID       int64
	Ref      string
	Book     string
	Category string
	Chapter  int
	Verse    int
	Priority string
}

// Config contains run-level batch configuration. Construct once per
// run; a new configuration implies a new run.
type Config struct {
	// BatchSize is the checkpoint cadence: a checkpoint is written
	// after every BatchSize settled items.
	BatchSize  int
	MaxWorkers int
	MaxRetries int
	RetryDelay time.Duration

	// ItemTimeout is a soft per-item limit. On expiry the item is
	// marked failed and the worker moves on; the underlying call is
	// not forcibly terminated.
	ItemTimeout time.Duration

	Resume bool
}

// Validate rejects configurations before any worker is spawned
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be positive, got %d", c.MaxWorkers)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive, got %d", c.MaxRetries)
	}
	return nil
}

// ErrItemTimeout marks an item abandoned by the soft per-item timeout.
// Timed-out items are not retried.
var ErrItemTimeout = errors.New("item processing timed out")

// TransientError marks a failure worth retrying, such as a dropped
// store connection.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so the processor will retry it
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether an error should be retried. Explicitly
// wrapped errors are authoritative; otherwise common infrastructure
// failure text is matched.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection") ||
		strings.Contains(msg, "temporary") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy")
}
