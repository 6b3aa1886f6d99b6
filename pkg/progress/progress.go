// Package progress persists per-document reading positions and
// maintains the shelf: the index of documents currently in progress.
// Records expire after seven days; the sweep runs on both the lookup
// and write paths.
package progress

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/dtnitsch/reader-lens/models"
	"github.com/dtnitsch/reader-lens/pkg/db"
)

const (
	// expiry is how long a record stays meaningful.
	expiry = 7 * 24 * time.Hour
	// minResumeScroll is the scroll depth below which resuming is
	// pointless; CheckProgress returns nothing under it.
	minResumeScroll = 200
	// Shelf bounds: a document is "in progress" strictly between these.
	shelfLowerBound = 5
	shelfUpperBound = 95
)

// Store reads and writes progress records. Now is swappable for tests.
type Store struct {
	db  *db.DB
	Now func() time.Time
}

// NewStore wraps an open database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, Now: time.Now}
}

// DocumentKey derives the stable record key for a source URL: a
// length-bounded hex digest, collision-resistant enough for one
// installation's reading history.
func DocumentKey(sourceURL string) string {
	digest := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(digest[:8])
}

// Percent computes scroll progress. A non-positive scrollable range
// (document shorter than the viewport) reads as 0.
func Percent(scrollTop, viewportHeight, documentHeight int) int {
	scrollable := documentHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return int(math.Round(float64(scrollTop) / float64(scrollable) * 100))
}

// Tick carries one throttled scroll observation plus the display
// metadata the shelf needs.
type Tick struct {
	ScrollTop        int
	ViewportHeight   int
	DocumentHeight   int
	Title            string
	FaviconURL       string
	ReadingTimeLabel string
}

// RecordProgress upserts the document's record and applies the shelf
// membership rule: strictly between the bounds the entry is inserted or
// refreshed, anywhere else it is removed. The shelf never holds a key
// whose stored percent is outside the bounds.
func (s *Store) RecordProgress(sourceURL string, tick Tick) error {
	key := DocumentKey(sourceURL)
	percent := Percent(tick.ScrollTop, tick.ViewportHeight, tick.DocumentHeight)
	now := s.Now().UnixMilli()

	_, err := s.db.Exec(`
		INSERT INTO progress_records
			(key, source_url, hostname, title, favicon_url, scroll_top, progress_percent, reading_time_label, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			scroll_top = excluded.scroll_top,
			progress_percent = excluded.progress_percent,
			title = excluded.title,
			favicon_url = excluded.favicon_url,
			reading_time_label = excluded.reading_time_label,
			timestamp_ms = excluded.timestamp_ms
	`, key, sourceURL, hostnameOf(sourceURL), tick.Title, tick.FaviconURL,
		tick.ScrollTop, percent, tick.ReadingTimeLabel, now)
	if err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}

	if percent > shelfLowerBound && percent < shelfUpperBound {
		if _, err := s.db.Exec(`INSERT OR REPLACE INTO shelf (key) VALUES (?)`, key); err != nil {
			return fmt.Errorf("failed to update shelf: %w", err)
		}
	} else {
		if _, err := s.db.Exec(`DELETE FROM shelf WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to clear shelf entry: %w", err)
		}
	}

	// Opportunistic sweep; an expired record shouldn't outlive a write.
	return s.SweepExpired()
}

// CheckProgress returns the stored record for a URL when it is fresh
// (within seven days) and deep enough to resume (scroll past 200).
// Anything else is nil.
func (s *Store) CheckProgress(sourceURL string) (*models.ProgressRecord, error) {
	if err := s.SweepExpired(); err != nil {
		return nil, err
	}

	record, err := s.lookup(DocumentKey(sourceURL))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	age := s.Now().UnixMilli() - record.TimestampMs
	if age > expiry.Milliseconds() || record.ScrollTop <= minResumeScroll {
		return nil, nil
	}
	return record, nil
}

// Dismiss deletes a document's record (and, via cascade, its shelf
// entry) on explicit user request.
func (s *Store) Dismiss(sourceURL string) error {
	if _, err := s.db.Exec(`DELETE FROM progress_records WHERE key = ?`, DocumentKey(sourceURL)); err != nil {
		return fmt.Errorf("failed to dismiss record: %w", err)
	}
	return nil
}

// SweepExpired removes records older than seven days.
func (s *Store) SweepExpired() error {
	cutoff := s.Now().Add(-expiry).UnixMilli()
	if _, err := s.db.Exec(`DELETE FROM progress_records WHERE timestamp_ms < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to sweep expired records: %w", err)
	}
	return nil
}

// Shelf returns the in-progress documents, most recent first.
func (s *Store) Shelf() ([]models.ProgressRecord, error) {
	rows, err := s.db.Query(`
		SELECT r.key, r.source_url, r.hostname, r.title, r.favicon_url,
		       r.scroll_top, r.progress_percent, r.reading_time_label, r.timestamp_ms
		FROM shelf sh JOIN progress_records r ON r.key = sh.key
		ORDER BY r.timestamp_ms DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read shelf: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var record models.ProgressRecord
		if err := rows.Scan(&record.Key, &record.SourceURL, &record.Hostname, &record.Title,
			&record.FaviconURL, &record.ScrollTop, &record.ProgressPercent,
			&record.ReadingTimeLabel, &record.TimestampMs); err != nil {
			return nil, fmt.Errorf("failed to scan shelf row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SetToggle persists a feature toggle.
func (s *Store) SetToggle(name string, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, name, value); err != nil {
		return fmt.Errorf("failed to set toggle: %w", err)
	}
	return nil
}

// Toggle reads a feature toggle; unset toggles are off.
func (s *Store) Toggle(name string) (bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read toggle: %w", err)
	}
	return value == "1", nil
}

func (s *Store) lookup(key string) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	err := s.db.QueryRow(`
		SELECT key, source_url, hostname, title, favicon_url,
		       scroll_top, progress_percent, reading_time_label, timestamp_ms
		FROM progress_records WHERE key = ?
	`, key).Scan(&record.Key, &record.SourceURL, &record.Hostname, &record.Title,
		&record.FaviconURL, &record.ScrollTop, &record.ProgressPercent,
		&record.ReadingTimeLabel, &record.TimestampMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up record: %w", err)
	}
	return &record, nil
}

func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
