package history

import (
	"context"

	"github.com/avelier/club-ladder/internal/domain/season"
)

// Repository owns the derived rating state: history entries and the
// replay that rebuilds them together with player-season aggregates.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Entry, error)
	ListByPlayerSeason(ctx context.Context, seasonID, playerID string) ([]Entry, error)

	// ReplaySeason discards the season's history and player aggregates,
	// then deterministically replays every game in
	// (played_at, id) order inside one transaction under the season's
	// exclusive lock. progress, when non-nil, is invoked as games are
	// applied; it must not abort the replay. Returns season.ErrLocked
	// when the lock is unavailable.
	ReplaySeason(ctx context.Context, s season.Season, progress func(processed, total int)) (ReplayStats, error)
}
