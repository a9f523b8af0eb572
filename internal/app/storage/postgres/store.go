package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
	"github.com/R3E-Network/time_vault/internal/app/storage"
)

// Store implements the lock registry backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.LockStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for components sharing the connection.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) GetLock(ctx context.Context, asset string) (timelock.Lock, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT asset, maturity, created_at
		FROM vault_locks
		WHERE asset = $1
	`, asset)

	var lock timelock.Lock
	if err := row.Scan(&lock.Asset, &lock.Maturity, &lock.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timelock.Lock{}, storage.ErrLockNotFound
		}
		return timelock.Lock{}, err
	}
	return lock, nil
}

// SetLock registers a lock. The unexpired check and the write happen inside a
// single transaction so a concurrent writer cannot slip between them.
func (s *Store) SetLock(ctx context.Context, lock timelock.Lock) error {
	if lock.CreatedAt.IsZero() {
		lock.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var maturity time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT maturity FROM vault_locks WHERE asset = $1 FOR UPDATE
	`, lock.Asset).Scan(&maturity)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No existing entry, fall through to the insert.
	case err != nil:
		return err
	default:
		if time.Now().UTC().Before(maturity) {
			return storage.ErrLockExists
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vault_locks (asset, maturity, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset) DO UPDATE SET maturity = $2, created_at = $3
	`, lock.Asset, lock.Maturity, lock.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ClearLock(ctx context.Context, asset string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vault_locks WHERE asset = $1`, asset)
	return err
}

func (s *Store) ListLocks(ctx context.Context) ([]timelock.Lock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT asset, maturity, created_at
		FROM vault_locks
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []timelock.Lock
	for rows.Next() {
		var lock timelock.Lock
		if err := rows.Scan(&lock.Asset, &lock.Maturity, &lock.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, lock)
	}
	return result, rows.Err()
}
