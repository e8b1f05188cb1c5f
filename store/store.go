// Package store persists assets and settings in an on-device SQLite
// database, and publishes a fresh snapshot of the assets to subscribers after
// every committed mutation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"

	_ "github.com/glebarez/go-sqlite"
)

// ErrNotFound is returned when an asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Store handles persistent storage of assets in SQLite.
type Store struct {
	db *sql.DB

	// mu serializes mutations so that snapshots are published in commit order.
	mu      sync.Mutex
	subs    map[int]chan []portfolio.Asset
	nextSub int
}

// Open opens, or creates, the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single connection serializes access to the database file.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	// rowid keeps the insertion rank, used to break display order ties.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			amount_held TEXT NOT NULL DEFAULT '0',
			current_price TEXT NOT NULL DEFAULT '0',
			category TEXT NOT NULL,
			display_order INTEGER NOT NULL DEFAULT 0,
			last_updated INTEGER NOT NULL DEFAULT 0,
			weight TEXT NOT NULL DEFAULT '0',
			premium TEXT NOT NULL DEFAULT '0',
			is_custom INTEGER NOT NULL DEFAULT 0,
			base_symbol TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create assets table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &Store{db: db, subs: make(map[int]chan []portfolio.Asset)}, nil
}

// Close closes the database connection and all subscriptions.
func (s *Store) Close() error {
	s.mu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	return s.db.Close()
}

const assetColumns = "id, symbol, name, amount_held, current_price, category, display_order, last_updated, weight, premium, is_custom, base_symbol"

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (portfolio.Asset, error) {
	var a portfolio.Asset
	var category string
	var updated int64
	err := row.Scan(&a.ID, &a.Symbol, &a.Name, &a.AmountHeld, &a.CurrentPrice, &category,
		&a.DisplayOrder, &updated, &a.Weight, &a.Premium, &a.IsCustom, &a.BaseSymbol)
	if err != nil {
		return a, err
	}
	a.Category = portfolio.Category(category)
	if updated != 0 {
		a.LastUpdated = time.UnixMilli(updated)
	}
	return a, nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// All returns a snapshot of all assets ordered by display order, ties broken
// by insertion order.
func (s *Store) All(ctx context.Context) ([]portfolio.Asset, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+assetColumns+" FROM assets ORDER BY display_order ASC, rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]portfolio.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return assets, nil
}

// Get returns a single asset, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (portfolio.Asset, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return a, fmt.Errorf("failed to get asset %q: %w", id, err)
	}
	return a, nil
}

// NextDisplayOrder returns the display order that puts a new asset last.
func (s *Store) NextDisplayOrder(ctx context.Context) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(display_order) + 1, 0) FROM assets").Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute display order: %w", err)
	}
	return next, nil
}

// Upsert inserts the assets, or replaces them by id, in a single transaction.
// Replaced assets keep their insertion rank.
func (s *Store) Upsert(ctx context.Context, assets ...portfolio.Asset) error {
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range assets {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					symbol=excluded.symbol,
					name=excluded.name,
					amount_held=excluded.amount_held,
					current_price=excluded.current_price,
					category=excluded.category,
					display_order=excluded.display_order,
					last_updated=excluded.last_updated,
					weight=excluded.weight,
					premium=excluded.premium,
					is_custom=excluded.is_custom,
					base_symbol=excluded.base_symbol`,
				a.ID, a.Symbol, a.Name, a.AmountHeld, a.CurrentPrice, string(a.Category),
				a.DisplayOrder, unixMilli(a.LastUpdated), a.Weight, a.Premium, a.IsCustom, a.BaseSymbol,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert asset %q: %w", a.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

// Delete removes the asset with that id, it is a no-op if absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete asset %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.publish(ctx)
	}
	return nil
}

// Reorder rewrites the display order of each asset to its position in ids.
// Unknown ids are ignored, assets not listed keep their display order.
func (s *Store) Reorder(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			if _, err := tx.ExecContext(ctx, "UPDATE assets SET display_order = ? WHERE id = ?", i, id); err != nil {
				return fmt.Errorf("failed to reorder asset %q: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

// UpdatePrices sets the price and refresh time of the assets that still
// exist, it never creates assets. It returns the number of assets updated.
// Negative prices are rejected, nothing is written then.
func (s *Store) UpdatePrices(ctx context.Context, updates []portfolio.PriceUpdate) (int, error) {
	for _, u := range updates {
		if u.Price.IsNegative() {
			return 0, fmt.Errorf("price %v of %q must not be negative", u.Price, u.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			res, err := tx.ExecContext(ctx, "UPDATE assets SET current_price = ?, last_updated = ? WHERE id = ?",
				u.Price, unixMilli(u.At), u.ID)
			if err != nil {
				return fmt.Errorf("failed to update price of %q: %w", u.ID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			n += affected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx)
	}
	return int(n), nil
}

// inTx runs f in a transaction, committed only if f succeeds.
func (s *Store) inTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving the current snapshot of all assets,
// then a new snapshot after every committed mutation, and a function to
// unsubscribe. Delivery is latest-wins: a slow subscriber skips intermediate
// snapshots, the store never blocks on it.
func (s *Store) Subscribe(ctx context.Context) (<-chan []portfolio.Asset, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan []portfolio.Asset, 1)
	ch <- snapshot

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if ch, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// publish sends a fresh snapshot to all subscribers. s.mu must be held.
func (s *Store) publish(ctx context.Context) {
	if len(s.subs) == 0 {
		return
	}
	// The mutation is committed, the snapshot must not be lost because the
	// caller context was cancelled right after.
	snapshot, err := s.All(context.WithoutCancel(ctx))
	if err != nil {
		slog.Warn("cannot publish assets snapshot", slog.Any("error", err))
		return
	}
	for _, ch := range s.subs {
		offer(ch, slices.Clone(snapshot))
	}
}

// offer replaces any pending snapshot in ch by snapshot.
func offer(ch chan []portfolio.Asset, snapshot []portfolio.Asset) {
	select {
	case ch <- snapshot:
		return
	default:
	}
	// drop the stale pending snapshot.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snapshot:
	default:
	}
}
