package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CacheRepository persists cache entries so a restarted process can keep
// serving finished weeks without refetching them.
type CacheRepository struct {
	db *sqlx.DB
}

func NewCacheRepository(db *sqlx.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

type cacheEntryRow struct {
	CacheKey string    `db:"cache_key"`
	Value    []byte    `db:"value"`
	StoredAt time.Time `db:"stored_at"`
}

func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	const query = `SELECT cache_key, value, stored_at FROM cache_entries WHERE cache_key = $1`

	var row cacheEntryRow
	if err := r.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("select cache entry key=%s: %w", key, err)
	}

	return row.Value, row.StoredAt, true, nil
}

func (r *CacheRepository) Put(ctx context.Context, key string, value []byte, storedAt time.Time) error {
	const query = `INSERT INTO cache_entries (cache_key, value, stored_at)
VALUES ($1, $2, $3)
ON CONFLICT (cache_key)
DO UPDATE SET value = EXCLUDED.value, stored_at = EXCLUDED.stored_at`

	if _, err := r.db.ExecContext(ctx, query, key, value, storedAt); err != nil {
		return fmt.Errorf("upsert cache entry key=%s: %w", key, err)
	}

	return nil
}

func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM cache_entries WHERE cache_key = $1`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete cache entry key=%s: %w", key, err)
	}

	return nil
}

// PruneOlderThan drops entries stored before cutoff. Run from a cron or a
// startup hook; the read path never depends on it.
func (r *CacheRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM cache_entries WHERE stored_at < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache entries: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned cache entries: %w", err)
	}

	return affected, nil
}
