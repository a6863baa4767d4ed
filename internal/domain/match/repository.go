package match

import (
	"context"

	"github.com/avelier/club-ladder/internal/domain/season"
)

// Repository describes match persistence needs from use cases.
type Repository interface {
	// ApplySubmission persists the match with its games, applies the
	// rating exchange per game in order, writes both history rows per
	// game and updates player-season aggregates, all in one transaction
	// under the season's exclusive lock. Returns season.ErrLocked when
	// the lock is held by a concurrent recalculation.
	ApplySubmission(ctx context.Context, s season.Season, m Match) (Result, error)

	GetByID(ctx context.Context, matchID string) (Match, bool, error)

	// List returns matches with their games, newest first, plus the
	// total match count for pagination. seasonID may be empty.
	List(ctx context.Context, seasonID string, limit, offset int) ([]Match, int, error)

	// DeleteCascade removes the match, its games and their history
	// rows. Aggregates are left to a follow-up recalculation.
	DeleteCascade(ctx context.Context, matchID string) error

	CountGamesBySeason(ctx context.Context, seasonID string) (int, error)
}
