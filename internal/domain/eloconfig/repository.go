package eloconfig

import "context"

// Repository describes rating-configuration persistence needs from use
// cases.
type Repository interface {
	Create(ctx context.Context, c Config) error
	GetByID(ctx context.Context, configID string) (Config, bool, error)
	GetByVersion(ctx context.Context, version string) (Config, bool, error)
	GetActive(ctx context.Context) (Config, bool, error)
	List(ctx context.Context) ([]Config, error)

	// Activate clears the previous active flag and sets the target's in
	// one transaction.
	Activate(ctx context.Context, configID string) error
}
