package job

import "context"

// Repository describes job persistence needs from use cases and the
// background runner.
type Repository interface {
	Create(ctx context.Context, j Job) error
	GetByID(ctx context.Context, jobID string) (Job, bool, error)
	Update(ctx context.Context, j Job) error
	List(ctx context.Context, limit int) ([]Job, error)
}
