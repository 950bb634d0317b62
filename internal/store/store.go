package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Status represents the processing status of a verse
type Status string

const (
	StatusRaw     Status = "raw"
	StatusRefined Status = "refined"
	StatusFailed  Status = "failed"
)

// Book represents one canonical book
type Book struct {
	ID             int64
	Name           string
	Category       string
	CanonicalOrder int
}

// Verse represents one verse row joined with its book
type Verse struct {
	ID             int64
	BookID         int64
	Book           string
	Category       string
	CanonicalOrder int
	Chapter        int
	VerseNumber    int
	Ref            string
	Text           string
	Status         Status
	LastError      string
	UpdatedAt      time.Time
}

// Commentary holds the generated exegetical content for a verse
type Commentary struct {
	Literal      string
	Allegorical  string
	Tropological string
	Anagogical   string

	EmotionalValence      float64
	TheologicalWeight     float64
	SensoryIntensity      float64
	GrammaticalComplexity float64
	LexicalRarity         float64
	NarrativeFunction     string
	BreathRhythm          string
	Register              string

	TonalWeight        string
	DreadAmplification float64

	Refined string
}

// Store provides access to the verse database
type Store struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// Open opens (and creates if needed) the verse database
func Open(dbPath string) (*Store, error) {
	// Configure SQLite for concurrent access
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=60000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS canonical_books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		canonical_order INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS verses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES canonical_books(id),
		chapter INTEGER NOT NULL,
		verse_number INTEGER NOT NULL,
		verse_reference TEXT NOT NULL UNIQUE,
		text_kjv TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'raw',
		literal_sense TEXT,
		allegorical_sense TEXT,
		tropological_sense TEXT,
		anagogical_sense TEXT,
		emotional_valence REAL,
		theological_weight REAL,
		sensory_intensity REAL,
		grammatical_complexity REAL,
		lexical_rarity REAL,
		narrative_function TEXT,
		breath_rhythm TEXT,
		register_baseline TEXT,
		tonal_weight TEXT,
		dread_amplification REAL,
		refined_explication TEXT,
		last_error TEXT,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS processing_batches (
		batch_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		verse_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		successful INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verses_status ON verses(status);
	CREATE INDEX IF NOT EXISTS idx_verses_book ON verses(book_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// retryOnBusy retries the operation if SQLite is busy
func (s *Store) retryOnBusy(operation func() error) error {
	maxRetries := 10
	baseDelay := 50 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		if !isBusyError(err) || attempt == maxRetries-1 {
			return err
		}

		delay := baseDelay * time.Duration(1<<uint(attempt))
		jitter := time.Duration(attempt*10) * time.Millisecond
		time.Sleep(delay + jitter)
	}

	return err
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
