package store

import "fmt"

// Book categories used for sense generation and plan grouping.
const (
	CategoryPentateuch     = "pentateuch"
	CategoryHistorical     = "historical"
	CategoryPoetic         = "poetic"
	CategoryMajorProphet   = "major_prophet"
	CategoryMinorProphet   = "minor_prophet"
	CategoryDeuterocanon   = "deuterocanonical"
	CategoryGospel         = "gospel"
	CategoryActs           = "acts"
	CategoryPauline        = "pauline"
	CategoryGeneralEpistle = "general_epistle"
	CategoryApocalyptic    = "apocalyptic"
)

type bookSeed struct {
	name     string
	category string
}

// canonicalBooks lists every book in canonical order. The slice index
// determines canonical_order, so entries must never be reordered.
var canonicalBooks = []bookSeed{
	{"Genesis", CategoryPentateuch},
	{"Exodus", CategoryPentateuch},
	{"Leviticus", CategoryPentateuch},
	{"Numbers", CategoryPentateuch},
	{"Deuteronomy", CategoryPentateuch},
	{"Joshua", CategoryHistorical},
	{"Judges", CategoryHistorical},
	{"Ruth", CategoryHistorical},
	{"1 Samuel", CategoryHistorical},
	{"2 Samuel", CategoryHistorical},
	{"1 Kings", CategoryHistorical},
	{"2 Kings", CategoryHistorical},
	{"1 Chronicles", CategoryHistorical},
	{"2 Chronicles", CategoryHistorical},
	{"Ezra", CategoryHistorical},
	{"Nehemiah", CategoryHistorical},
	{"Esther", CategoryHistorical},
	{"Job", CategoryPoetic},
	{"Psalms", CategoryPoetic},
	{"Proverbs", CategoryPoetic},
	{"Ecclesiastes", CategoryPoetic},
	{"Song of Solomon", CategoryPoetic},
	{"Isaiah", CategoryMajorProphet},
	{"Jeremiah", CategoryMajorProphet},
	{"Lamentations", CategoryMajorProphet},
	{"Ezekiel", CategoryMajorProphet},
	{"Daniel", CategoryMajorProphet},
	{"Hosea", CategoryMinorProphet},
	{"Joel", CategoryMinorProphet},
	{"Amos", CategoryMinorProphet},
	{"Obadiah", CategoryMinorProphet},
	{"Jonah", CategoryMinorProphet},
	{"Micah", CategoryMinorProphet},
	{"Nahum", CategoryMinorProphet},
	{"Habakkuk", CategoryMinorProphet},
	{"Zephaniah", CategoryMinorProphet},
	{"Haggai", CategoryMinorProphet},
	{"Zechariah", CategoryMinorProphet},
	{"Malachi", CategoryMinorProphet},
	{"Tobit", CategoryDeuterocanon},
	{"Judith", CategoryDeuterocanon},
	{"Wisdom of Solomon", CategoryDeuterocanon},
	{"Sirach", CategoryDeuterocanon},
	{"Baruch", CategoryDeuterocanon},
	{"1 Maccabees", CategoryDeuterocanon},
	{"2 Maccabees", CategoryDeuterocanon},
	{"Matthew", CategoryGospel},
	{"Mark", CategoryGospel},
	{"Luke", CategoryGospel},
	{"John", CategoryGospel},
	{"Acts", CategoryActs},
	{"Romans", CategoryPauline},
	{"1 Corinthians", CategoryPauline},
	{"2 Corinthians", CategoryPauline},
	{"Galatians", CategoryPauline},
	{"Ephesians", CategoryPauline},
	{"Philippians", CategoryPauline},
	{"Colossians", CategoryPauline},
	{"1 Thessalonians", CategoryPauline},
	{"2 Thessalonians", CategoryPauline},
	{"1 Timothy", CategoryPauline},
	{"2 Timothy", CategoryPauline},
	{"Titus", CategoryPauline},
	{"Philemon", CategoryPauline},
	{"Hebrews", CategoryPauline},
	{"James", CategoryGeneralEpistle},
	{"1 Peter", CategoryGeneralEpistle},
	{"2 Peter", CategoryGeneralEpistle},
	{"1 John", CategoryGeneralEpistle},
	{"2 John", CategoryGeneralEpistle},
	{"3 John", CategoryGeneralEpistle},
	{"Jude", CategoryGeneralEpistle},
	{"Revelation", CategoryApocalyptic},
}

// SeedBooks populates the canonical book table. Safe to call repeatedly.
func (s *Store) SeedBooks() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		query := `
		INSERT INTO canonical_books (name, category, canonical_order)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			category = excluded.category,
			canonical_order = excluded.canonical_order
		`

		for i, b := range canonicalBooks {
			if _, err := tx.Exec(query, b.name, b.category, i+1); err != nil {
				return fmt.Errorf("failed to seed book %s: %w", b.name, err)
			}
		}

		return tx.Commit()
	})
}

// Books returns all canonical books in canonical order
func (s *Store) Books() ([]Book, error) {
	rows, err := s.db.Query(`
		SELECT id, name, category, canonical_order
		FROM canonical_books
		ORDER BY canonical_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.CanonicalOrder); err != nil {
			return nil, err
		}
		books = append(books, b)
	}

	return books, rows.Err()
}
