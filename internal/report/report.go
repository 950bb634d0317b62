package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"biblos/internal/checkpoint"
	"biblos/internal/store"
)

// Reporter assembles progress and status views from the verse store
// and the checkpoint directory.
type Reporter struct {
	store       *store.Store
	checkpoints checkpoint.Store
}

func New(s *store.Store, cps checkpoint.Store) *Reporter {
	return &Reporter{store: s, checkpoints: cps}
}

// SystemStatus is a point-in-time snapshot of the whole corpus
type SystemStatus struct {
	Books         int
	Verses        int
	ByStatus      map[store.Status]int
	Completion    float64
	Backlogs      []store.BookBacklog
	RecentBatches []store.BatchRecord
	Checkpoints   []checkpoint.Summary
}

// Status collects the snapshot. An empty store yields zeroed counts,
// not an error.
func (r *Reporter) Status() (*SystemStatus, error) {
	books, verses, err := r.store.Counts()
	if err != nil {
		return nil, fmt.Errorf("counting corpus: %w", err)
	}

	byStatus, err := r.store.CompletionStats()
	if err != nil {
		return nil, fmt.Errorf("completion stats: %w", err)
	}

	backlogs, err := r.store.BookBacklogs()
	if err != nil {
		return nil, fmt.Errorf("book backlogs: %w", err)
	}

	recent, err := r.store.RecentBatches(10)
	if err != nil {
		return nil, fmt.Errorf("recent batches: %w", err)
	}

	summaries, err := r.checkpoints.List()
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}

	st := &SystemStatus{
		Books:         books,
		Verses:        verses,
		ByStatus:      byStatus,
		Backlogs:      backlogs,
		RecentBatches: recent,
		Checkpoints:   summaries,
	}
	if verses > 0 {
		st.Completion = float64(byStatus[store.StatusRefined]) / float64(verses) * 100
	}
	return st, nil
}

// Render writes a human-readable status report
func (r *Reporter) Render(w io.Writer, st *SystemStatus) {
	fmt.Fprintf(w, "Corpus: %d books, %d verses (%.1f%% refined)\n",
		st.Books, st.Verses, st.Completion)

	statuses := make([]store.Status, 0, len(st.ByStatus))
	for s := range st.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, s := range statuses {
		fmt.Fprintf(w, "  %-10s %d\n", s, st.ByStatus[s])
	}

	if len(st.RecentBatches) > 0 {
		fmt.Fprintf(w, "\nRecent batches:\n")
		for _, b := range st.RecentBatches {
			fmt.Fprintf(w, "  %-40s %-10s %d ok / %d failed (%s)\n",
				b.BatchID, b.Status, b.Successful, b.Failed,
				FormatDuration(b.CompletedAt.Sub(b.StartedAt)))
		}
	}

	if len(st.Checkpoints) > 0 {
		fmt.Fprintf(w, "\nResumable checkpoints:\n")
		for _, c := range st.Checkpoints {
			fmt.Fprintf(w, "  %-40s %d/%d (updated %s ago)\n",
				c.BatchID, c.Processed, c.Total,
				FormatDuration(time.Since(c.UpdatedAt)))
		}
	}
}

// RenderBacklog writes per-book pending counts, skipping finished books
func (r *Reporter) RenderBacklog(w io.Writer, st *SystemStatus) {
	fmt.Fprintf(w, "Pending verses by book:\n")
	shown := 0
	for _, b := range st.Backlogs {
		if b.Pending == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-24s %-20s %d\n", b.Name, b.Category, b.Pending)
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(w, "  (none)\n")
	}
}

// FormatDuration renders a duration in compact h/m/s form
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
