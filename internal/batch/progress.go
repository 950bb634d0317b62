package batch

import (
	"sync"
	"time"
)

// Status represents the state of a batch run
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Progress is a point-in-time view of one batch run. Owned by the
// processor for the duration of the run; never shared across runs.
type Progress struct {
	BatchID    string
	Total      int
	Processed  int
	Successful int
	Failed     int
	Skipped    int
	Status     Status
	CurrentRef string
	StartTime  time.Time
}

// Rate returns processed items per second since the run started
func (p Progress) Rate() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.Processed) / elapsed
}

// Percent returns the completion percentage
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// Remaining estimates time to completion from the average rate
func (p Progress) Remaining() time.Duration {
	rate := p.Rate()
	if rate <= 0 {
		return 0
	}
	left := p.Total - p.Processed
	if left <= 0 {
		return 0
	}
	return time.Duration(float64(left)/rate) * time.Second
}

// tracker guards the mutable progress of a running batch
type tracker struct {
	mu       sync.Mutex
	progress Progress
}

func newTracker(batchID string, total int) *tracker {
	return &tracker{progress: Progress{
		BatchID:   batchID,
		Total:     total,
		Status:    StatusPending,
		StartTime: time.Now(),
	}}
}

func (t *tracker) seed(processed, successful, failed, skipped int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Processed = processed
	t.progress.Successful = successful
	t.progress.Failed = failed
	t.progress.Skipped = skipped
}

func (t *tracker) addSuccess(ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Successful++
	t.progress.Processed++
	t.progress.CurrentRef = ref
}

func (t *tracker) addFailed(ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Failed++
	t.progress.Processed++
	t.progress.CurrentRef = ref
}

// setStatus applies a state transition, ignoring transitions out of a
// terminal state.
func (t *tracker) setStatus(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.progress.Status.Terminal() {
		return
	}
	t.progress.Status = status
}

func (t *tracker) status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.progress.Status
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.progress
}
