package season

import (
	"context"
	"time"
)

// Repository describes season and player-season persistence needs from
// use cases. Composite operations (activation, cascade delete,
// reassignment) run inside a single transaction in the implementation.
type Repository interface {
	Create(ctx context.Context, s Season) error
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	GetByName(ctx context.Context, name string) (Season, bool, error)
	GetByStartDate(ctx context.Context, startDate int64) (Season, bool, error)
	GetActive(ctx context.Context) (Season, bool, error)
	List(ctx context.Context) ([]Season, error)
	Update(ctx context.Context, s Season) error
	Count(ctx context.Context) (int, error)

	// Activate flips is_active off the previous season and on for the
	// target in one transaction; there is never a window with zero or
	// two active seasons.
	Activate(ctx context.Context, seasonID string) error

	// DeleteCascade removes the season with its matches, games, history
	// and player-season rows.
	DeleteCascade(ctx context.Context, seasonID string) error

	// ReassignGames moves games (and their parent matches) from one
	// season to another, retagging season ownership but not history.
	// A non-nil playedFrom bounds the move to games played at or after
	// that instant. Returns the number of games moved.
	ReassignGames(ctx context.Context, fromSeasonID, toSeasonID string, playedFrom *time.Time) (int, error)

	GetPlayerSeason(ctx context.Context, seasonID, playerID string) (PlayerSeason, bool, error)
	ListPlayerSeasons(ctx context.Context, seasonID string) ([]PlayerSeason, error)
	UpsertPlayerSeason(ctx context.Context, ps PlayerSeason) error
	SetInclusion(ctx context.Context, seasonID, playerID string, included bool) error

	// EnsurePlayers creates missing player-season rows seeded at
	// startingElo, leaving existing rows untouched.
	EnsurePlayers(ctx context.Context, seasonID string, playerIDs []string, startingElo float64) error

	Leaderboard(ctx context.Context, seasonID string) ([]LeaderboardEntry, error)
}
