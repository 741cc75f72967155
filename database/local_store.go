package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// LocalStore is the server-side stand-in for browser local storage:
// string values under fixed keys, partitioned by client scope.
// Writes are last-write-wins; there is no locking between callers.
type LocalStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewLocalStore(db *sql.DB) *LocalStore {
	return &LocalStore{db: db, now: time.Now}
}

// Get returns the raw value under key, and false when it was never set.
func (s *LocalStore) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM local_store
		WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "db.local_store.get %s", key)
	}
	return []byte(value), true, nil
}

func (s *LocalStore) Put(ctx context.Context, scope, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_store (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		scope, key, string(value), s.now().UTC(),
	)
	return errors.Wrapf(err, "db.local_store.put %s", key)
}

// Scan returns the value under key for every scope that has one.
func (s *LocalStore) Scan(ctx context.Context, key string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, value FROM local_store
		WHERE key = ?`,
		key,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "db.local_store.scan %s", key)
	}
	defer rows.Close()

	values := map[string][]byte{}
	for rows.Next() {
		var scope, value string
		if err := rows.Scan(&scope, &value); err != nil {
			return nil, errors.Wrapf(err, "db.local_store.scan %s", key)
		}
		values[scope] = []byte(value)
	}
	return values, errors.Wrapf(rows.Err(), "db.local_store.scan %s", key)
}
