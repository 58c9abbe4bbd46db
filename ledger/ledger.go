// Package ledger keeps a SQLite record of every article persisted by a run,
// so later runs can recognise links and slugs they have already written.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

// Record is one persisted article.
type Record struct {
	ID        string
	Link      string
	Slug      string
	Date      time.Time
	Path      string
	Source    string
	CreatedAt time.Time
}

// Ledger stores records in SQLite.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at dbPath.
func Open(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return l, nil
}

// initSchema creates the articles table if it doesn't exist.
func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		link TEXT NOT NULL,
		slug TEXT NOT NULL,
		date TEXT NOT NULL,
		path TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_link ON articles(link);
	CREATE INDEX IF NOT EXISTS idx_articles_date_slug ON articles(date, slug);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Add stores r. A zero CreatedAt is set to now.
func (l *Ledger) Add(r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO articles (id, link, slug, date, path, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.Exec(query,
		r.ID, r.Link, r.Slug,
		formatDate(r.Date), r.Path, r.Source,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// HasLink reports whether an article with link has been recorded.
func (l *Ledger) HasLink(link string) (bool, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE link = ?`, link).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query link: %w", err)
	}
	return n > 0, nil
}

// FindBySlug returns the latest record written for date and slug.
func (l *Ledger) FindBySlug(date time.Time, slug string) (*Record, error) {
	query := `
		SELECT id, link, slug, date, path, source, created_at
		FROM articles
		WHERE date = ? AND slug = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	r, err := scanRecord(l.db.QueryRow(query, formatDate(date), slug))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return r, nil
}

// List returns all records, newest first.
func (l *Ledger) List() ([]Record, error) {
	rows, err := l.db.Query(`
		SELECT id, link, slug, date, path, source, created_at
		FROM articles
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var r Record
	var dateStr, createdAtStr string
	if err := s.Scan(&r.ID, &r.Link, &r.Slug, &dateStr, &r.Path, &r.Source, &createdAtStr); err != nil {
		return nil, err
	}

	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	r.Date = date
	r.CreatedAt = createdAt
	return &r, nil
}

// formatDate keys records by the UTC calendar day posts are filed under.
func formatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
