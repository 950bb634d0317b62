package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Scope narrows a verse query to one book or one category. The zero
// value matches every verse.
type Scope struct {
	Book     string
	Category string
}

// BookBacklog reports how many verses of a book still need processing
type BookBacklog struct {
	Name           string
	Category       string
	CanonicalOrder int
	Pending        int
}

// IncompleteBook reports a partially processed book
type IncompleteBook struct {
	Name           string
	CanonicalOrder int
	Total          int
	Refined        int
	Pending        int
}

// Completion returns the refined fraction of the book
func (b IncompleteBook) Completion() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Refined) / float64(b.Total)
}

// PendingVerses returns all verses in scope that still need processing,
// in deterministic canonical order. Resumption relies on this ordering
// being stable between runs for an unchanged table.
func (s *Store) PendingVerses(scope Scope) ([]Verse, error) {
	query := `
	SELECT v.id, v.book_id, cb.name, cb.category, cb.canonical_order,
	       v.chapter, v.verse_number, v.verse_reference, v.status
	FROM verses v
	JOIN canonical_books cb ON v.book_id = cb.id
	WHERE v.status IN ('raw', 'failed')
	`

	var args []any
	if scope.Book != "" {
		query += " AND cb.name = ?"
		args = append(args, scope.Book)
	}
	if scope.Category != "" {
		query += " AND cb.category = ?"
		args = append(args, scope.Category)
	}

	query += " ORDER BY cb.canonical_order, v.chapter, v.verse_number, v.id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending verses: %w", err)
	}
	defer rows.Close()

	var verses []Verse
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.ID, &v.BookID, &v.Book, &v.Category, &v.CanonicalOrder,
			&v.Chapter, &v.VerseNumber, &v.Ref, &v.Status); err != nil {
			return nil, err
		}
		verses = append(verses, v)
	}

	return verses, rows.Err()
}

// GetVerse loads one verse with its book info, or nil if absent
func (s *Store) GetVerse(id int64) (*Verse, error) {
	row := s.db.QueryRow(`
		SELECT v.id, v.book_id, cb.name, cb.category, cb.canonical_order,
		       v.chapter, v.verse_number, v.verse_reference, v.text_kjv,
		       v.status, v.last_error
		FROM verses v
		JOIN canonical_books cb ON v.book_id = cb.id
		WHERE v.id = ?
	`, id)

	var v Verse
	var lastError sql.NullString
	err := row.Scan(&v.ID, &v.BookID, &v.Book, &v.Category, &v.CanonicalOrder,
		&v.Chapter, &v.VerseNumber, &v.Ref, &v.Text, &v.Status, &lastError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastError.Valid {
		v.LastError = lastError.String
	}

	return &v, nil
}

// SaveCommentary persists the generated content and marks the verse refined.
// Overwrites any previous content, so regeneration is idempotent.
func (s *Store) SaveCommentary(id int64, c *Commentary) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			UPDATE verses SET
				literal_sense = ?, allegorical_sense = ?,
				tropological_sense = ?, anagogical_sense = ?,
				emotional_valence = ?, theological_weight = ?,
				sensory_intensity = ?, grammatical_complexity = ?,
				lexical_rarity = ?, narrative_function = ?,
				breath_rhythm = ?, register_baseline = ?,
				tonal_weight = ?, dread_amplification = ?,
				refined_explication = ?,
				status = 'refined', last_error = NULL, updated_at = ?
			WHERE id = ?
		`,
			c.Literal, c.Allegorical, c.Tropological, c.Anagogical,
			c.EmotionalValence, c.TheologicalWeight,
			c.SensoryIntensity, c.GrammaticalComplexity,
			c.LexicalRarity, c.NarrativeFunction,
			c.BreathRhythm, c.Register,
			c.TonalWeight, c.DreadAmplification,
			c.Refined, time.Now(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to save commentary: %w", err)
		}

		return tx.Commit()
	})
}

// MarkFailed records a processing failure for a verse
func (s *Store) MarkFailed(id int64, msg string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE verses SET status = 'failed', last_error = ?, updated_at = ?
			WHERE id = ?
		`, msg, time.Now(), id)
		return err
	})
}

// CompletionStats returns verse counts per status. An empty table
// yields an empty map, never an error.
func (s *Store) CompletionStats() (map[Status]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM verses GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}

	return stats, rows.Err()
}

// BookBacklogs returns per-book pending counts in canonical order,
// omitting books with nothing to process. Computed fresh on every call.
func (s *Store) BookBacklogs() ([]BookBacklog, error) {
	rows, err := s.db.Query(`
		SELECT cb.name, cb.category, cb.canonical_order, COUNT(v.id)
		FROM canonical_books cb
		JOIN verses v ON v.book_id = cb.id
		WHERE v.status IN ('raw', 'failed')
		GROUP BY cb.id
		ORDER BY cb.canonical_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backlogs []BookBacklog
	for rows.Next() {
		var b BookBacklog
		if err := rows.Scan(&b.Name, &b.Category, &b.CanonicalOrder, &b.Pending); err != nil {
			return nil, err
		}
		backlogs = append(backlogs, b)
	}

	return backlogs, rows.Err()
}

// CategoryBacklog returns the pending verse count for one category
func (s *Store) CategoryBacklog(category string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(v.id)
		FROM verses v
		JOIN canonical_books cb ON v.book_id = cb.id
		WHERE cb.category = ? AND v.status IN ('raw', 'failed')
	`, category).Scan(&count)
	return count, err
}

// IncompleteBooks returns books with both refined and pending verses,
// most complete first, ties broken by canonical order.
func (s *Store) IncompleteBooks() ([]IncompleteBook, error) {
	rows, err := s.db.Query(`
		SELECT cb.name, cb.canonical_order,
		       COUNT(v.id) AS total,
		       SUM(CASE WHEN v.status = 'refined' THEN 1 ELSE 0 END) AS refined,
		       SUM(CASE WHEN v.status IN ('raw', 'failed') THEN 1 ELSE 0 END) AS pending
		FROM canonical_books cb
		JOIN verses v ON v.book_id = cb.id
		GROUP BY cb.id
		HAVING refined > 0 AND pending > 0
		ORDER BY CAST(refined AS REAL) / COUNT(v.id) DESC, cb.canonical_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []IncompleteBook
	for rows.Next() {
		var b IncompleteBook
		if err := rows.Scan(&b.Name, &b.CanonicalOrder, &b.Total, &b.Refined, &b.Pending); err != nil {
			return nil, err
		}
		books = append(books, b)
	}

	return books, rows.Err()
}

// Counts returns total book and verse counts
func (s *Store) Counts() (books int, verses int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM canonical_books`).Scan(&books); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM verses`).Scan(&verses); err != nil {
		return 0, 0, err
	}
	return books, verses, nil
}
