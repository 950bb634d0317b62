package store

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// VerseInput is one parsed verse line awaiting insertion
type VerseInput struct {
	Book        string
	Chapter     int
	VerseNumber int
	Text        string
}

// Ref returns the canonical verse reference, e.g. "John 3:16"
func (v VerseInput) Ref() string {
	return fmt.Sprintf("%s %d:%d", v.Book, v.Chapter, v.VerseNumber)
}

// verseLine matches "Book C:V text". Book names may themselves contain
// digits and spaces (1 Samuel), so the chapter:verse pair anchors the split.
var verseLine = regexp.MustCompile(`^(.*\S)\s+(\d+):(\d+)\s+(.+)$`)

// ParseVerseLine parses a single ingest line, or returns false for
// blank lines and comments.
func ParseVerseLine(line string) (VerseInput, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return VerseInput{}, false
	}

	m := verseLine.FindStringSubmatch(line)
	if m == nil {
		return VerseInput{}, false
	}

	chapter, _ := strconv.Atoi(m[2])
	verse, _ := strconv.Atoi(m[3])
	return VerseInput{
		Book:        m[1],
		Chapter:     chapter,
		VerseNumber: verse,
		Text:        strings.TrimSpace(m[4]),
	}, true
}

// IngestVerses bulk-upserts parsed verses. New verses start raw; for
// existing verses only the text is updated so processing state survives
// re-ingestion. Returns the number of rows written.
func (s *Store) IngestVerses(inputs []VerseInput) (int, error) {
	bookIDs, err := s.bookIDsByName()
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	written := 0
	err = s.retryOnBusy(func() error {
		written = 0

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		query := `
		INSERT INTO verses (book_id, chapter, verse_number, verse_reference, text_kjv, status, updated_at)
		VALUES (?, ?, ?, ?, ?, 'raw', ?)
		ON CONFLICT(verse_reference) DO UPDATE SET
			text_kjv = excluded.text_kjv,
			updated_at = excluded.updated_at
		`

		now := time.Now()
		for _, in := range inputs {
			bookID, ok := bookIDs[in.Book]
			if !ok {
				return fmt.Errorf("unknown book %q in verse %s", in.Book, in.Ref())
			}

			if _, err := tx.Exec(query, bookID, in.Chapter, in.VerseNumber, in.Ref(), in.Text, now); err != nil {
				return fmt.Errorf("failed to upsert verse %s: %w", in.Ref(), err)
			}
			written++
		}

		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

// IngestFile reads a verse text file and loads it into the store
func (s *Store) IngestFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open verse file: %w", err)
	}
	defer f.Close()

	var inputs []VerseInput
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if in, ok := ParseVerseLine(scanner.Text()); ok {
			inputs = append(inputs, in)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read verse file: %w", err)
	}

	return s.IngestVerses(inputs)
}

func (s *Store) bookIDsByName() (map[string]int64, error) {
	books, err := s.Books()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(books))
	for _, b := range books {
		ids[b.Name] = b.ID
	}
	return ids, nil
}
