package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
)

// LoadSettings returns the persisted settings, defaults for missing keys.
func (s *Store) LoadSettings(ctx context.Context) (portfolio.Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return portfolio.Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return portfolio.Settings{}, fmt.Errorf("failed to scan setting: %w", err)
		}
		kv[key] = value
	}
	if err := rows.Err(); err != nil {
		return portfolio.Settings{}, fmt.Errorf("rows iteration error: %w", err)
	}
	return portfolio.SettingsFrom(kv), nil
}

// SaveSettings persists all the settings.
func (s *Store) SaveSettings(ctx context.Context, settings portfolio.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for key, value := range settings.Map() {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
				key, value, now,
			)
			if err != nil {
				return fmt.Errorf("failed to save setting %q: %w", key, err)
			}
		}
		return nil
	})
}
