package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.SeedBooks(); err != nil {
		t.Fatalf("SeedBooks: %v", err)
	}
	return s
}

func mustIngest(t *testing.T, s *Store, inputs []VerseInput) {
	t.Helper()
	if _, err := s.IngestVerses(inputs); err != nil {
		t.Fatalf("IngestVerses: %v", err)
	}
}

func TestSeedBooks(t *testing.T) {
	s := newTestStore(t)

	books, err := s.Books()
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(books) != 73 {
		t.Fatalf("seeded %d books, want 73", len(books))
	}

	if books[0].Name != "Genesis" || books[0].CanonicalOrder != 1 {
		t.Errorf("first book = %s (#%d), want Genesis (#1)", books[0].Name, books[0].CanonicalOrder)
	}
	if last := books[len(books)-1]; last.Name != "Revelation" || last.Category != CategoryApocalyptic {
		t.Errorf("last book = %s (%s), want Revelation (apocalyptic)", last.Name, last.Category)
	}

	// reseeding must not duplicate
	if err := s.SeedBooks(); err != nil {
		t.Fatalf("second SeedBooks: %v", err)
	}
	books, err = s.Books()
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(books) != 73 {
		t.Errorf("after reseed: %d books, want 73", len(books))
	}
}

func TestParseVerseLine(t *testing.T) {
	tests := []struct {
		line string
		want VerseInput
		ok   bool
	}{
		{"Genesis 1:1 In the beginning God created the heaven and the earth.",
			VerseInput{"Genesis", 1, 1, "In the beginning God created the heaven and the earth."}, true},
		{"1 Samuel 3:10 And the LORD came, and stood, and called as at other times.",
			VerseInput{"1 Samuel", 3, 10, "And the LORD came, and stood, and called as at other times."}, true},
		{"Song of Solomon 2:1 I am the rose of Sharon, and the lily of the valleys.",
			VerseInput{"Song of Solomon", 2, 1, "I am the rose of Sharon, and the lily of the valleys."}, true},
		{"", VerseInput{}, false},
		{"   ", VerseInput{}, false},
		{"# a comment", VerseInput{}, false},
		{"no reference here", VerseInput{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseVerseLine(tt.line)
		if ok != tt.ok {
			t.Errorf("ParseVerseLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseVerseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestIngestVerses(t *testing.T) {
	s := newTestStore(t)

	mustIngest(t, s, []VerseInput{
		{"Genesis", 1, 1, "In the beginning"},
		{"Genesis", 1, 2, "And the earth was without form"},
	})

	verses, err := s.PendingVerses(Scope{})
	if err != nil {
		t.Fatalf("PendingVerses: %v", err)
	}
	if len(verses) != 2 {
		t.Fatalf("pending = %d, want 2", len(verses))
	}
	if verses[0].Status != StatusRaw {
		t.Errorf("status = %s, want raw", verses[0].Status)
	}
}

func TestIngestPreservesProcessingState(t *testing.T) {
	s := newTestStore(t)
	mustIngest(t, s, []VerseInput{{"Genesis", 1, 1, "old text"}})

	verses, _ := s.PendingVerses(Scope{})
	if err := s.SaveCommentary(verses[0].ID, &Commentary{Refined: "done"}); err != nil {
		t.Fatalf("SaveCommentary: %v", err)
	}

	// re-ingesting updates text but keeps refined status
	mustIngest(t, s, []VerseInput{{"Genesis", 1, 1, "new text"}})

	v, err := s.GetVerse(verses[0].ID)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if v.Status != StatusRefined {
		t.Errorf("status = %s after re-ingest, want refined", v.Status)
	}
	if v.Text != "new text" {
		t.Errorf("text = %q, want updated text", v.Text)
	}
}

func TestIngestUnknownBook(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.IngestVerses([]VerseInput{{"Gospel of Thomas", 1, 1, "x"}}); err == nil {
		t.Fatal("expected error for book outside the canon")
	}
}

func TestIngestFile(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(t.TempDir(), "verses.txt")
	content := "# test corpus\nGenesis 1:1 In the beginning\n\nJohn 3:16 For God so loved the world\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	n, err := s.IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if n != 2 {
		t.Errorf("ingested %d verses, want 2", n)
	}
}

func TestPendingVersesOrdering(t *testing.T) {
	s := newTestStore(t)

	// inserted out of canonical order on purpose
	mustIngest(t, s, []VerseInput{
		{"John", 3, 16, "For God so loved the world"},
		{"Genesis", 2, 1, "Thus the heavens"},
		{"Genesis", 1, 1, "In the beginning"},
		{"Exodus", 1, 1, "Now these are the names"},
		{"Genesis", 1, 2, "And the earth"},
	})

	verses, err := s.PendingVerses(Scope{})
	if err != nil {
		t.Fatalf("PendingVerses: %v", err)
	}

	wantRefs := []string{"Genesis 1:1", "Genesis 1:2", "Genesis 2:1", "Exodus 1:1", "John 3:16"}
	if len(verses) != len(wantRefs) {
		t.Fatalf("pending = %d, want %d", len(verses), len(wantRefs))
	}
	for i, want := range wantRefs {
		if verses[i].Ref != want {
			t.Errorf("position %d: %s, want %s", i, verses[i].Ref, want)
		}
	}

	// repeated calls return the identical sequence
	again, err := s.PendingVerses(Scope{})
	if err != nil {
		t.Fatalf("second PendingVerses: %v", err)
	}
	for i := range verses {
		if verses[i].ID != again[i].ID {
			t.Errorf("position %d differs across calls: %d vs %d", i, verses[i].ID, again[i].ID)
		}
	}
}

func TestPendingVersesScopes(t *testing.T) {
	s := newTestStore(t)
	mustIngest(t, s, []VerseInput{
		{"Genesis", 1, 1, "a"},
		{"Exodus", 1, 1, "b"},
		{"John", 1, 1, "c"},
		{"Matthew", 1, 1, "d"},
	})

	byBook, err := s.PendingVerses(Scope{Book: "Genesis"})
	if err != nil {
		t.Fatalf("PendingVerses(book): %v", err)
	}
	if len(byBook) != 1 || byBook[0].Book != "Genesis" {
		t.Errorf("book scope = %+v, want one Genesis verse", byBook)
	}

	byCat, err := s.PendingVerses(Scope{Category: CategoryGospel})
	if err != nil {
		t.Fatalf("PendingVerses(category): %v", err)
	}
	if len(byCat) != 2 {
		t.Errorf("gospel scope = %d verses, want 2", len(byCat))
	}
}

func TestSaveCommentaryAndMarkFailed(t *testing.T) {
	s := newTestStore(t)
	mustIngest(t, s, []VerseInput{
		{"Genesis", 1, 1, "a"},
		{"Genesis", 1, 2, "b"},
	})
	verses, _ := s.PendingVerses(Scope{})

	c := &Commentary{
		Literal:           "literal sense",
		Allegorical:       "allegorical sense",
		Tropological:      "tropological sense",
		Anagogical:        "anagogical sense",
		EmotionalValence:  0.5,
		TheologicalWeight: 0.75,
		NarrativeFunction: "scene-setting",
		BreathRhythm:      "sustained",
		Register:          "cosmic-liturgical",
		TonalWeight:       "neutral",
		Refined:           "full explication",
	}
	if err := s.SaveCommentary(verses[0].ID, c); err != nil {
		t.Fatalf("SaveCommentary: %v", err)
	}
	if err := s.MarkFailed(verses[1].ID, "generation error"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	refined, err := s.GetVerse(verses[0].ID)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if refined.Status != StatusRefined {
		t.Errorf("status = %s, want refined", refined.Status)
	}

	failed, err := s.GetVerse(verses[1].ID)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if failed.Status != StatusFailed || failed.LastError != "generation error" {
		t.Errorf("got status=%s error=%q, want failed/generation error", failed.Status, failed.LastError)
	}

	// refined verses leave the pending set; failed verses stay in it
	pending, _ := s.PendingVerses(Scope{})
	if len(pending) != 1 || pending[0].ID != verses[1].ID {
		t.Errorf("pending = %+v, want only the failed verse", pending)
	}
}

func TestSaveCommentaryClearsLastError(t *testing.T) {
	s := newTestStore(t)
	mustIngest(t, s, []VerseInput{{"Genesis", 1, 1, "a"}})
	verses, _ := s.PendingVerses(Scope{})

	if err := s.MarkFailed(verses[0].ID, "first try"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := s.SaveCommentary(verses[0].ID, &Commentary{Refined: "ok"}); err != nil {
		t.Fatalf("SaveCommentary: %v", err)
	}

	v, err := s.GetVerse(verses[0].ID)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if v.LastError != "" {
		t.Errorf("last error = %q after success, want empty", v.LastError)
	}
}

func TestGetVerseAbsent(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetVerse(99999)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if v != nil {
		t.Errorf("GetVerse = %+v, want nil for absent id", v)
	}
}

func TestCompletionStats(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.CompletionStats()
	if err != nil {
		t.Fatalf("CompletionStats on empty store: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("empty store stats = %v, want empty map", stats)
	}

	mustIngest(t, s, []VerseInput{
		{"Genesis", 1, 1, "a"},
		{"Genesis", 1, 2, "b"},
		{"Genesis", 1, 3, "c"},
	})
	verses, _ := s.PendingVerses(Scope{})
	s.SaveCommentary(verses[0].ID, &Commentary{})
	s.MarkFailed(verses[1].ID, "x")

	stats, err = s.CompletionStats()
	if err != nil {
		t.Fatalf("CompletionStats: %v", err)
	}
	if stats[StatusRefined] != 1 || stats[StatusFailed] != 1 || stats[StatusRaw] != 1 {
		t.Errorf("stats = %v, want one of each status", stats)
	}
}

func TestIncompleteBooks(t *testing.T) {
	s := newTestStore(t)
	mustIngest(t, s, []VerseInput{
		{"Genesis", 1, 1, "a"}, {"Genesis", 1, 2, "b"}, {"Genesis", 1, 3, "c"}, {"Genesis", 1, 4, "d"},
		{"Exodus", 1, 1, "e"}, {"Exodus", 1, 2, "f"},
		{"John", 1, 1, "g"},
	})

	// Genesis 3/4 refined, Exodus 1/2 refined, John untouched
	verses, _ := s.PendingVerses(Scope{})
	byRef := make(map[string]int64)
	for _, v := range verses {
		byRef[v.Ref] = v.ID
	}
	for _, ref := range []string{"Genesis 1:1", "Genesis 1:2", "Genesis 1:3", "Exodus 1:1"} {
		if err := s.SaveCommentary(byRef[ref], &Commentary{}); err != nil {
			t.Fatalf("SaveCommentary(%s): %v", ref, err)
		}
	}

	incomplete, err := s.IncompleteBooks()
	if err != nil {
		t.Fatalf("IncompleteBooks: %v", err)
	}
	if len(incomplete) != 2 {
		t.Fatalf("incomplete = %d books, want 2 (John has no refined verses)", len(incomplete))
	}

	// most-complete first: Genesis at 75% before Exodus at 50%
	if incomplete[0].Name != "Genesis" || incomplete[1].Name != "Exodus" {
		t.Errorf("order = [%s %s], want [Genesis Exodus]", incomplete[0].Name, incomplete[1].Name)
	}
	if got := incomplete[0].Completion(); got != 0.75 {
		t.Errorf("Genesis completion = %f, want 0.75", got)
	}
}

func TestBookBacklogsAndCounts(t *testing.T) {
	s := newTestStore(t)
	mustIngest(t, s, []VerseInput{
		{"Genesis", 1, 1, "a"},
		{"Genesis", 1, 2, "b"},
		{"John", 1, 1, "c"},
	})

	backlogs, err := s.BookBacklogs()
	if err != nil {
		t.Fatalf("BookBacklogs: %v", err)
	}
	byName := make(map[string]BookBacklog)
	for _, b := range backlogs {
		byName[b.Name] = b
	}
	if byName["Genesis"].Pending != 2 || byName["John"].Pending != 1 {
		t.Errorf("backlogs = Genesis %d, John %d; want 2 and 1",
			byName["Genesis"].Pending, byName["John"].Pending)
	}

	n, err := s.CategoryBacklog(CategoryGospel)
	if err != nil {
		t.Fatalf("CategoryBacklog: %v", err)
	}
	if n != 1 {
		t.Errorf("gospel backlog = %d, want 1", n)
	}

	books, verses, err := s.Counts()
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if books != 73 || verses != 3 {
		t.Errorf("counts = %d books, %d verses; want 73 and 3", books, verses)
	}
}

func TestRecordBatch(t *testing.T) {
	s := newTestStore(t)

	rec := &BatchRecord{
		BatchID:     "book-genesis-20250101",
		Kind:        "book",
		Name:        "Genesis",
		VerseCount:  100,
		Status:      "running",
		StartedAt:   time.Now().Add(-time.Minute),
		CompletedAt: time.Now(),
	}
	if err := s.RecordBatch(rec); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}

	// re-recording the same batch id updates in place
	rec.Status = "completed"
	rec.Successful = 98
	rec.Failed = 2
	if err := s.RecordBatch(rec); err != nil {
		t.Fatalf("second RecordBatch: %v", err)
	}

	recent, err := s.RecentBatches(10)
	if err != nil {
		t.Fatalf("RecentBatches: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d records, want 1", len(recent))
	}
	if recent[0].Status != "completed" || recent[0].Successful != 98 {
		t.Errorf("record = %+v, want updated status and counts", recent[0])
	}
}
