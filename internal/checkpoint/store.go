package checkpoint

import (
	"time"
)

// Record is the durable snapshot of one batch's progress. At every
// persisted snapshot Processed == Successful + Failed and
// Processed <= Total.
type Record struct {
	BatchID    string `json:"batch_id"`
	Total      int    `json:"total"`
	Processed  int    `json:"processed"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`

	// LastProcessedID is the id of the highest item in stream order
	// at or below which every item has settled. Zero means none.
	LastProcessedID int64  `json:"last_processed_id"`
	LastRef         string `json:"last_ref,omitempty"`

	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the operator-facing view of a checkpoint
type Summary struct {
	BatchID   string
	Processed int
	Total     int
	UpdatedAt time.Time
}

// Store defines the interface for checkpoint persistence
type Store interface {
	// Save atomically overwrites the checkpoint for the record's batch id
	Save(record *Record) error

	// Load returns the checkpoint for a batch id, or nil when there is
	// none. Unreadable checkpoints are reported as absent, not as errors.
	Load(batchID string) (*Record, error)

	// List enumerates all known checkpoints
	List() ([]Summary, error)

	// Clear removes the checkpoint for a batch id. Clearing a missing
	// checkpoint is not an error.
	Clear(batchID string) error
}
