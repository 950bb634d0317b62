package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"biblos/internal/checkpoint"
	"biblos/internal/store"

	"go.uber.org/zap"
)

func newTestReporter(t *testing.T) (*Reporter, *store.Store, checkpoint.Store) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.SeedBooks(); err != nil {
		t.Fatalf("SeedBooks: %v", err)
	}

	cps, err := checkpoint.NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	return New(s, cps), s, cps
}

func TestStatusEmptyStore(t *testing.T) {
	r, _, _ := newTestReporter(t)

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if st.Books != 73 {
		t.Errorf("books = %d, want 73 (canon is seeded)", st.Books)
	}
	if st.Verses != 0 || st.Completion != 0 {
		t.Errorf("verses=%d completion=%f, want zeros for empty store", st.Verses, st.Completion)
	}
	if len(st.RecentBatches) != 0 || len(st.Checkpoints) != 0 {
		t.Errorf("expected no batches or checkpoints, got %+v", st)
	}
}

func TestStatusWithData(t *testing.T) {
	r, s, cps := newTestReporter(t)

	if _, err := s.IngestVerses([]store.VerseInput{
		{Book: "Genesis", Chapter: 1, VerseNumber: 1, Text: "a"},
		{Book: "Genesis", Chapter: 1, VerseNumber: 2, Text: "b"},
		{Book: "Genesis", Chapter: 1, VerseNumber: 3, Text: "c"},
		{Book: "Genesis", Chapter: 1, VerseNumber: 4, Text: "d"},
	}); err != nil {
		t.Fatalf("IngestVerses: %v", err)
	}
	verses, _ := s.PendingVerses(store.Scope{})
	if err := s.SaveCommentary(verses[0].ID, &store.Commentary{}); err != nil {
		t.Fatalf("SaveCommentary: %v", err)
	}

	if err := s.RecordBatch(&store.BatchRecord{
		BatchID: "book-genesis-20250101", Kind: "book", Name: "Genesis",
		Status: "completed", StartedAt: time.Now(), CompletedAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}
	if err := cps.Save(&checkpoint.Record{BatchID: "book-exodus-20250101", Total: 10, Processed: 4}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if st.Verses != 4 {
		t.Errorf("verses = %d, want 4", st.Verses)
	}
	if st.Completion != 25 {
		t.Errorf("completion = %f, want 25", st.Completion)
	}
	if st.ByStatus[store.StatusRefined] != 1 || st.ByStatus[store.StatusRaw] != 3 {
		t.Errorf("by status = %v, want 1 refined / 3 raw", st.ByStatus)
	}
	if len(st.RecentBatches) != 1 || len(st.Checkpoints) != 1 {
		t.Errorf("batches=%d checkpoints=%d, want 1/1", len(st.RecentBatches), len(st.Checkpoints))
	}
}

func TestRender(t *testing.T) {
	r, s, _ := newTestReporter(t)

	if _, err := s.IngestVerses([]store.VerseInput{
		{Book: "John", Chapter: 3, VerseNumber: 16, Text: "For God so loved the world"},
	}); err != nil {
		t.Fatalf("IngestVerses: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	var out strings.Builder
	r.Render(&out, st)
	if !strings.Contains(out.String(), "73 books, 1 verses") {
		t.Errorf("render output missing corpus line:\n%s", out.String())
	}

	out.Reset()
	r.RenderBacklog(&out, st)
	if !strings.Contains(out.String(), "John") {
		t.Errorf("backlog output missing pending book:\n%s", out.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{-5 * time.Second, "0s"},
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m30s"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3h4m5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
