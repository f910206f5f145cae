package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// schema lives in pkg/database/migrations:
// CREATE TABLE client_storage (
//   slot TEXT PRIMARY KEY,
//   value TEXT NOT NULL,
//   updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
// );

// SQLStorage keeps slots in the client_storage table. Queries are written
// with ? placeholders and rebound for the connected driver.
type SQLStorage struct {
	db *sqlx.DB
}

func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (r *SQLStorage) Get(ctx context.Context, slot string) (string, bool, error) {
	var value string
	q := r.db.Rebind(`SELECT value FROM client_storage WHERE slot = ?`)
	if err := r.db.QueryRowxContext(ctx, q, slot).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *SQLStorage) Set(ctx context.Context, slot, value string) error {
	q := r.db.Rebind(`INSERT INTO client_storage (slot, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	_, err := r.db.ExecContext(ctx, q, slot, value)
	return err
}

func (r *SQLStorage) Remove(ctx context.Context, slots ...string) error {
	if len(slots) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM client_storage WHERE slot IN (?)`, slots)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	return err
}

func (r *SQLStorage) Close() error {
	return r.db.Close()
}
