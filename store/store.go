package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Custom errors for store operations
var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrInvalidDirType    = errors.New("directory_type must be chamber_of_commerce, bbb, business_directory, or other")
	ErrInvalidStatus     = errors.New("scrape_status must be pending, scraped, or failed")
)

// Valid directory_type values.
const (
	TypeChamberOfCommerce = "chamber_of_commerce"
	TypeBBB               = "bbb"
	TypeBusinessDirectory = "business_directory"
	TypeOther             = "other"
)

// Valid scrape_status values. Status moves forward only (pending -> scraped
// or pending -> failed), except a re-scrape which resets to pending.
const (
	StatusPending = "pending"
	StatusScraped = "scraped"
	StatusFailed  = "failed"
)

// Store manages discovered directories and their scraped businesses using
// SQLite.
type Store struct {
	db *sql.DB
}

// Directory represents a single web page believed to list multiple
// businesses.
type Directory struct {
	ID            uuid.UUID  `json:"id"`
	URL           string     `json:"url"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	DirectoryType string     `json:"directory_type"`
	Description   *string    `json:"description,omitempty"`
	ScrapeStatus  string     `json:"scrape_status"`
	BusinessCount int        `json:"business_count"`
	DiscoveredAt  time.Time  `json:"discovered_at"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// ValidDirectoryType reports whether t is one of the known directory types.
func ValidDirectoryType(t string) bool {
	switch t {
	case TypeChamberOfCommerce, TypeBBB, TypeBusinessDirectory, TypeOther:
		return true
	}
	return false
}

// New creates a new store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Required for ON DELETE CASCADE from businesses to directories
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the database tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS directories (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		directory_type TEXT NOT NULL,
		description TEXT,
		scrape_status TEXT NOT NULL DEFAULT 'pending',
		business_count INTEGER NOT NULL DEFAULT 0,
		discovered_at TEXT NOT NULL,
		last_scraped_at TEXT
	);

	CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		directory_id TEXT NOT NULL REFERENCES directories(id) ON DELETE CASCADE,
		business_name TEXT NOT NULL,
		contact_person TEXT,
		phone TEXT,
		email TEXT,
		website TEXT,
		socials TEXT,
		address TEXT,
		scraped_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_businesses_directory
		ON businesses(directory_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDirectory inserts a directory, or returns the existing one when a
// directory with the same URL is already known. URLs are expected to be
// normalized by the caller, so the UNIQUE constraint on url is what makes
// repeated discovery runs idempotent.
func (s *Store) UpsertDirectory(dir *Directory) (*Directory, error) {
	if !ValidDirectoryType(dir.DirectoryType) {
		return nil, ErrInvalidDirType
	}

	if dir.ID == uuid.Nil {
		dir.ID = uuid.New()
	}
	if dir.ScrapeStatus == "" {
		dir.ScrapeStatus = StatusPending
	}
	if dir.DiscoveredAt.IsZero() {
		dir.DiscoveredAt = time.Now()
	}

	query := `
		INSERT INTO directories (
			id, url, name, location, directory_type, description,
			scrape_status, business_count, discovered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`

	result, err := s.db.Exec(query,
		dir.ID.String(),
		dir.URL,
		dir.Name,
		dir.Location,
		dir.DirectoryType,
		dir.Description,
		dir.ScrapeStatus,
		dir.BusinessCount,
		formatTime(&dir.DiscoveredAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert directory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return dir, nil
	}

	// Conflict on url -- hand back the directory already on record
	return s.GetDirectoryByURL(dir.URL)
}

// GetDirectory retrieves a directory by ID.
func (s *Store) GetDirectory(id uuid.UUID) (*Directory, error) {
	return s.getDirectoryWhere("id = ?", id.String())
}

// GetDirectoryByURL retrieves a directory by its normalized URL.
func (s *Store) GetDirectoryByURL(url string) (*Directory, error) {
	return s.getDirectoryWhere("url = ?", url)
}

func (s *Store) getDirectoryWhere(where string, arg any) (*Directory, error) {
	query := `
		SELECT id, url, name, location, directory_type, description,
		       scrape_status, business_count, discovered_at, last_scraped_at
		FROM directories
		WHERE ` + where

	dir, err := scanDirectory(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, ErrDirectoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query directory: %w", err)
	}

	return dir, nil
}

// GetDirectories lists all directories, most recently discovered first.
func (s *Store) GetDirectories() ([]Directory, error) {
	query := `
		SELECT id, url, name, location, directory_type, description,
		       scrape_status, business_count, discovered_at, last_scraped_at
		FROM directories
		ORDER BY discovered_at DESC, url
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query directories: %w", err)
	}
	defer rows.Close()

	var dirs []Directory
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		dirs = append(dirs, *dir)
	}

	return dirs, rows.Err()
}

// UpdateScrapeStatus sets a directory's scrape status.
func (s *Store) UpdateScrapeStatus(id uuid.UUID, status string) error {
	switch status {
	case StatusPending, StatusScraped, StatusFailed:
	default:
		return ErrInvalidStatus
	}

	result, err := s.db.Exec(
		"UPDATE directories SET scrape_status = ? WHERE id = ?",
		status, id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update scrape status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDirectoryNotFound
	}

	return nil
}

// DeleteDirectory deletes a directory and, via the foreign key cascade, all
// businesses it owns.
func (s *Store) DeleteDirectory(id uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM directories WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDirectoryNotFound
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDirectory(row rowScanner) (*Directory, error) {
	var dir Directory
	var idStr, discoveredAtStr string
	var description, lastScrapedAtStr sql.NullString

	err := row.Scan(
		&idStr, &dir.URL, &dir.Name, &dir.Location, &dir.DirectoryType,
		&description, &dir.ScrapeStatus, &dir.BusinessCount,
		&discoveredAtStr, &lastScrapedAtStr,
	)
	if err != nil {
		return nil, err
	}

	dir.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory id: %w", err)
	}
	dir.DiscoveredAt = parseTime(discoveredAtStr)
	if description.Valid {
		dir.Description = &description.String
	}
	if lastScrapedAtStr.Valid {
		t := parseTime(lastScrapedAtStr.String)
		dir.LastScrapedAt = &t
	}

	return &dir, nil
}

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// nullable converts an empty string to a SQL NULL.
func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
