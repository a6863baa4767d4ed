package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/avelier/club-ladder/internal/domain/season"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// seasonLockKey maps a season id to a stable advisory lock key. FNV-1a
// keeps the key deterministic across processes.
func seasonLockKey(seasonID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("season:" + seasonID))
	return int64(h.Sum64())
}

// acquireSeasonLock takes the season's transaction-scoped advisory lock.
// Returns season.ErrLocked without blocking when another transaction
// holds it, so ingestion and recalculation never interleave.
func acquireSeasonLock(ctx context.Context, tx *sqlx.Tx, seasonID string) error {
	var acquired bool
	if err := tx.GetContext(ctx, &acquired, "SELECT pg_try_advisory_xact_lock($1)", seasonLockKey(seasonID)); err != nil {
		return fmt.Errorf("acquire season lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: season=%s", season.ErrLocked, seasonID)
	}
	return nil
}
