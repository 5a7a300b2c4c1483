package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Business represents one validated contact record extracted from a
// directory page. A business belongs to exactly one directory and is
// replaced wholesale when that directory is re-scraped.
type Business struct {
	ID            uuid.UUID `json:"id"`
	DirectoryID   uuid.UUID `json:"directory_id"`
	BusinessName  string    `json:"business_name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Website       string    `json:"website,omitempty"`
	Socials       []string  `json:"socials,omitempty"`
	Address       string    `json:"address,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// ReplaceBusinesses atomically replaces all businesses owned by a directory
// with the given set. The delete, the inserts, and the directory's
// business_count/scrape_status update happen in one transaction, so a
// reader never observes a half-replaced list. Returns the stored count.
func (s *Store) ReplaceBusinesses(directoryID uuid.UUID, businesses []Business) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The directory must exist before we touch its businesses
	var exists int
	err = tx.QueryRow("SELECT COUNT(*) FROM directories WHERE id = ?", directoryID.String()).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check directory: %w", err)
	}
	if exists == 0 {
		return 0, ErrDirectoryNotFound
	}

	if _, err := tx.Exec("DELETE FROM businesses WHERE directory_id = ?", directoryID.String()); err != nil {
		return 0, fmt.Errorf("failed to delete old businesses: %w", err)
	}

	insert := `
		INSERT INTO businesses (
			id, directory_id, business_name, contact_person, phone,
			email, website, socials, address, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	for i := range businesses {
		b := &businesses[i]
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		b.DirectoryID = directoryID
		if b.ScrapedAt.IsZero() {
			b.ScrapedAt = now
		}

		socialsJSON, err := marshalSocials(b.Socials)
		if err != nil {
			return 0, err
		}

		_, err = tx.Exec(insert,
			b.ID.String(),
			directoryID.String(),
			b.BusinessName,
			nullable(b.ContactPerson),
			nullable(b.Phone),
			nullable(b.Email),
			nullable(b.Website),
			socialsJSON,
			nullable(b.Address),
			formatTime(&b.ScrapedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert business: %w", err)
		}
	}

	// Keep the cached count in sync in the same transaction
	status := StatusScraped
	_, err = tx.Exec(
		"UPDATE directories SET business_count = ?, scrape_status = ?, last_scraped_at = ? WHERE id = ?",
		len(businesses), status, formatTime(&now), directoryID.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update directory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(businesses), nil
}

// GetBusinesses lists businesses, optionally filtered to one directory.
// Pass uuid.Nil for no filter.
func (s *Store) GetBusinesses(directoryID uuid.UUID) ([]Business, error) {
	query := `
		SELECT id, directory_id, business_name, contact_person, phone,
		       email, website, socials, address, scraped_at
		FROM businesses
	`
	var args []any
	if directoryID != uuid.Nil {
		query += " WHERE directory_id = ?"
		args = append(args, directoryID.String())
	}
	query += " ORDER BY business_name, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	var businesses []Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, *b)
	}

	return businesses, rows.Err()
}

// CountBusinesses returns the number of businesses owned by a directory.
func (s *Store) CountBusinesses(directoryID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM businesses WHERE directory_id = ?",
		directoryID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return count, nil
}

func scanBusiness(row rowScanner) (*Business, error) {
	var b Business
	var idStr, dirIDStr, scrapedAtStr string
	var contactPerson, phone, email, website, socialsJSON, address sql.NullString

	err := row.Scan(
		&idStr, &dirIDStr, &b.BusinessName, &contactPerson, &phone,
		&email, &website, &socialsJSON, &address, &scrapedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if b.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse business id: %w", err)
	}
	if b.DirectoryID, err = uuid.Parse(dirIDStr); err != nil {
		return nil, fmt.Errorf("failed to parse directory id: %w", err)
	}
	b.ScrapedAt = parseTime(scrapedAtStr)

	if contactPerson.Valid {
		b.ContactPerson = contactPerson.String
	}
	if phone.Valid {
		b.Phone = phone.String
	}
	if email.Valid {
		b.Email = email.String
	}
	if website.Valid {
		b.Website = website.String
	}
	if address.Valid {
		b.Address = address.String
	}
	if socialsJSON.Valid && socialsJSON.String != "" {
		if err := json.Unmarshal([]byte(socialsJSON.String), &b.Socials); err != nil {
			return nil, fmt.Errorf("failed to unmarshal socials: %w", err)
		}
	}

	return &b, nil
}

func marshalSocials(socials []string) (any, error) {
	if len(socials) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(socials)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal socials: %w", err)
	}
	return string(data), nil
}
