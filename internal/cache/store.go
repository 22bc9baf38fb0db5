// Package cache provides the persistent expiring key-value store backing
// every report. Values are stored as msgpack blobs with an absolute
// expiration timestamp; expiry is checked lazily on read and swept by a
// scheduled cleanup job.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Schema is the cache database schema. Each entry is an independent row;
// a failed write for one key never touches the others.
const Schema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires_at);
`

// Entry describes a stored key for the inspection tools. Expired entries
// are listed too; only Get filters them out.
type Entry struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry has passed its expiration.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store provides cache operations over a sqlite database.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New creates a cache store. Call Migrate before first use.
func New(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "cache").Logger(),
	}
}

// Migrate applies the cache schema.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply cache schema: %w", err)
	}
	return nil
}

// Set stores value under key, expiring after ttl. A non-positive ttl
// stores a row that is already expired, so the next Get is a miss.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	return s.SetUntil(key, value, time.Now().Add(ttl))
}

// SetUntil stores value under key with an absolute expiration.
// Overwrites any existing entry; last writer wins.
func (s *Store) SetUntil(key string, value interface{}, expiresAt time.Time) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for %q: %w", key, err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO entries (key, data, expires_at) VALUES (?, ?, ?)",
		key, data, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %q: %w", key, err)
	}

	return nil
}

// Get decodes the fresh entry for key into dest. Returns false when the
// key was never set, is expired, or the stored blob cannot be decoded
// (a corrupt entry is a miss that triggers a re-fetch, not an error).
func (s *Store) Get(key string, dest interface{}) (bool, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM entries WHERE key = ? AND expires_at > ?",
		key, time.Now().Unix(),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	if err := msgpack.Unmarshal(data, dest); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry, treating as miss")
		return false, nil
	}

	return true, nil
}

// Delete removes one entry. Returns whether a row existed.
func (s *Store) Delete(key string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("failed to delete cache entry %q: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for %q: %w", key, err)
	}

	return affected > 0, nil
}

// Clear removes all entries. Returns the number removed.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec("DELETE FROM entries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	return result.RowsAffected()
}

// Keys returns a snapshot of all stored keys with their expirations,
// ordered by key. Used by the interactive cache inspector and the
// HTTP inspection API.
func (s *Store) Keys() ([]Entry, error) {
	rows, err := s.db.Query("SELECT key, expires_at FROM entries ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key string
		var expiresAt int64
		if err := rows.Scan(&key, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		entries = append(entries, Entry{Key: key, ExpiresAt: time.Unix(expiresAt, 0)})
	}

	return entries, rows.Err()
}

// DeleteExpired removes all rows past their expiration.
// Returns the number of rows deleted.
func (s *Store) DeleteExpired() (int64, error) {
	result, err := s.db.Exec("DELETE FROM entries WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	return result.RowsAffected()
}
