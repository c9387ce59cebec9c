package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-inspector/internal/settings"
)

// historyLimit is how many revisions settings_history keeps.
const historyLimit = 50

// HistoryEntry is one saved revision of the settings.
type HistoryEntry struct {
	ID      int64     `json:"id"`
	Version int       `json:"version"`
	Source  string    `json:"source"`
	SavedAt time.Time `json:"savedAt"`
	Body    string    `json:"body"`
}

// LoadSettings returns the stored settings. When nothing was saved yet it
// returns the defaults and false.
func (d *Database) LoadSettings(ctx context.Context) (settings.Settings, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_settings", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var body string
	err = d.db.QueryRowContext(ctx, "SELECT body FROM settings WHERE id = 1").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return settings.Default(), false, nil
	}
	if err != nil {
		return settings.Settings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}

	s, err := settings.Parse([]byte(body))
	if err != nil {
		return settings.Settings{}, false, fmt.Errorf("stored settings are invalid: %w", err)
	}
	return s, true, nil
}

// SaveSettings replaces the stored settings and records the revision in the
// history, pruning revisions beyond historyLimit.
func (d *Database) SaveSettings(ctx context.Context, s settings.Settings, source string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_settings", start, err) }()

	if err = s.Validate(); err != nil {
		return err
	}
	var body []byte
	body, err = settings.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO settings (id, version, body, updated_at)
		VALUES (1, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			body = excluded.body,
			updated_at = excluded.updated_at
	`, settings.CurrentVersion, string(body)); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO settings_history (version, body, source) VALUES (?, ?, ?)
	`, settings.CurrentVersion, string(body), source); err != nil {
		return fmt.Errorf("failed to record settings history: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM settings_history
		WHERE id NOT IN (SELECT id FROM settings_history ORDER BY id DESC LIMIT ?)
	`, historyLimit); err != nil {
		return fmt.Errorf("failed to prune settings history: %w", err)
	}

	err = tx.Commit()
	return err
}

// SettingsHistory returns up to limit revisions, newest first.
func (d *Database) SettingsHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("settings_history", start, err) }()

	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, version, source, saved_at, body
		FROM settings_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var savedAt int64
		if err = rows.Scan(&e.ID, &e.Version, &e.Source, &savedAt, &e.Body); err != nil {
			return nil, err
		}
		e.SavedAt = time.Unix(savedAt, 0)
		entries = append(entries, e)
	}
	err = rows.Err()
	return entries, err
}
