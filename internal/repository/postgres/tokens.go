package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type TokenRepo struct {
	DB DBTX
}

type entry struct {
	Key   string
	Value string
}

const getEntries = `-- name: GetEntries
SELECT key, value
FROM token_store
WHERE key = ANY($1)
`

func (r *TokenRepo) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	rows, _ := r.DB.Query(ctx, getEntries, keys)
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entry])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make(map[string]string, len(entries))
	for _, e := range entries {
		result[e.Key] = e.Value
	}

	return result, nil
}

const setEntry = `-- name: SetEntry
INSERT INTO token_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`

// Set upserts every entry in single transaction
func (r *TokenRepo) Set(ctx context.Context, entries map[string]string) error {
	return NewStorage(r.DB).InTx(ctx, func(s *Storage) error {
		for key, value := range entries {
			if _, err := s.db.Exec(ctx, setEntry, key, value); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}
