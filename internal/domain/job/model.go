package job

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Type string

const (
	TypeRecalculateSeason Type = "recalculate_season"
	TypeRecalculateAll    Type = "recalculate_all"
	TypeDeleteMatch       Type = "delete_match"
	TypeDeleteSeason      Type = "delete_season"
)

// Job tracks one background operation. Clients poll it; there is no
// cancellation.
type Job struct {
	ID             string
	Type           Type
	Status         Status
	Progress       int
	TotalItems     int
	ProcessedItems int
	Result         map[string]any
	ErrorMessage   string
	SeasonID       string
	CreatedBy      string
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// Terminal reports whether the job has finished, successfully or not.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
