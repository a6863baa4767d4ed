package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, p Player) error
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByName(ctx context.Context, name string) (Player, bool, error)
	List(ctx context.Context) ([]Player, error)
	ListActive(ctx context.Context) ([]Player, error)

	// ListAvailableForSeason returns players with no player-season row
	// for the given season.
	ListAvailableForSeason(ctx context.Context, seasonID string) ([]Player, error)
	Update(ctx context.Context, p Player) error
}
