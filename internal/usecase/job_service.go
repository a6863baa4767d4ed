package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/avelier/club-ladder/internal/domain/job"
)

type JobService struct {
	jobRepo job.Repository
}

func NewJobService(jobRepo job.Repository) *JobService {
	return &JobService{jobRepo: jobRepo}
}

func (s *JobService) GetJob(ctx context.Context, jobID string) (job.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.GetJob")
	defer span.End()

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return job.Job{}, fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}

	item, exists, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return job.Job{}, fmt.Errorf("get job: %w", err)
	}
	if !exists {
		return job.Job{}, fmt.Errorf("%w: job=%s", ErrNotFound, jobID)
	}

	return item, nil
}

func (s *JobService) ListJobs(ctx context.Context, limit int) ([]job.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.ListJobs")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := s.jobRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return items, nil
}
