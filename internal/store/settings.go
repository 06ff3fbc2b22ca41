package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/ayusman/mudra/internal/config"
)

// Setting keys.
const (
	// KeyEngineConfig holds the last applied settings document as JSON.
	KeyEngineConfig = "engine_config"
	// KeyDetectionEnabled remembers whether detection was running.
	KeyDetectionEnabled = "detection_enabled"
)

// SettingsRepository reads and writes key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// GetBool returns the boolean stored under key, or def when unset or unparsable.
func (r *SettingsRepository) GetBool(key string, def bool) bool {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SetBool stores a boolean under key.
func (r *SettingsRepository) SetBool(key string, v bool) error {
	return r.Set(key, strconv.FormatBool(v))
}

// SaveSnapshot stores s as the last applied engine settings.
func (r *SettingsRepository) SaveSnapshot(s *config.Snapshot) error {
	data, err := config.Marshal(s, config.FormatJSON)
	if err != nil {
		return err
	}
	if err := r.Set(KeyEngineConfig, string(data)); err != nil {
		return fmt.Errorf("save engine config: %w", err)
	}
	return nil
}

// LoadSnapshot returns the last applied engine settings, or ErrNotFound.
func (r *SettingsRepository) LoadSnapshot() (*config.Snapshot, error) {
	v, err := r.Get(KeyEngineConfig)
	if err != nil {
		return nil, err
	}
	s, err := config.Parse([]byte(v), config.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}
	return s, nil
}
