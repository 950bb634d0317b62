package store

import (
	"fmt"
	"time"
)

// BatchRecord is the durable row describing one finished batch run
type BatchRecord struct {
	BatchID     string
	Kind        string
	Name        string
	VerseCount  int
	Status      string
	Successful  int
	Failed      int
	StartedAt   time.Time
	CompletedAt time.Time
}

// RecordBatch inserts or replaces the record for one batch run
func (s *Store) RecordBatch(rec *BatchRecord) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO processing_batches
			(batch_id, kind, name, verse_count, status, successful, failed, started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(batch_id) DO UPDATE SET
				status = excluded.status,
				verse_count = excluded.verse_count,
				successful = excluded.successful,
				failed = excluded.failed,
				completed_at = excluded.completed_at
		`, rec.BatchID, rec.Kind, rec.Name, rec.VerseCount, rec.Status,
			rec.Successful, rec.Failed, rec.StartedAt, rec.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to record batch: %w", err)
		}
		return nil
	})
}

// RecentBatches returns the most recently completed batch records
func (s *Store) RecentBatches(limit int) ([]BatchRecord, error) {
	rows, err := s.db.Query(`
		SELECT batch_id, kind, name, verse_count, status, successful, failed, started_at, completed_at
		FROM processing_batches
		ORDER BY completed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []BatchRecord
	for rows.Next() {
		var r BatchRecord
		if err := rows.Scan(&r.BatchID, &r.Kind, &r.Name, &r.VerseCount, &r.Status,
			&r.Successful, &r.Failed, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
