package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/history"
	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/match"
	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/id"
	"github.com/avelier/club-ladder/internal/platform/logging"
)

// AllSeasons is the sentinel season id for a full-ladder replay.
const AllSeasons = "all"

// progressStride is how many applied games pass between job progress
// writes during a replay.
const progressStride = 100

// TaskRunner executes background work submitted by services. The jobs
// runner implements it over a bounded worker pool.
type TaskRunner interface {
	Submit(name string, fn func(ctx context.Context)) error
}

type RecalcService struct {
	seasonRepo  season.Repository
	historyRepo history.Repository
	matchRepo   match.Repository
	jobRepo     job.Repository
	runner      TaskRunner
	logger      *logging.Logger
	idGen       id.Generator
	now         func() time.Time
}

func NewRecalcService(
	seasonRepo season.Repository,
	historyRepo history.Repository,
	matchRepo match.Repository,
	jobRepo job.Repository,
	runner TaskRunner,
	logger *logging.Logger,
	idGen id.Generator,
) *RecalcService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &RecalcService{
		seasonRepo:  seasonRepo,
		historyRepo: historyRepo,
		matchRepo:   matchRepo,
		jobRepo:     jobRepo,
		runner:      runner,
		logger:      logger,
		idGen:       idGen,
		now:         time.Now,
	}
}

// Recalculate starts an asynchronous replay of one season, or of every
// season in start-date order when seasonID is AllSeasons. The returned
// job is pending; callers poll it for progress and outcome.
func (s *RecalcService) Recalculate(ctx context.Context, seasonID, requestedBy string) (job.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.Recalculate")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return job.Job{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if seasonID == AllSeasons {
		return s.enqueue(ctx, "", job.TypeRecalculateAll, requestedBy, nil)
	}

	return s.EnqueueSeasonRecalc(ctx, seasonID, job.TypeRecalculateSeason, requestedBy, nil)
}

// EnqueueSeasonRecalc creates a pending job for one season's replay and
// hands it to the background runner.
func (s *RecalcService) EnqueueSeasonRecalc(ctx context.Context, seasonID string, jobType job.Type, requestedBy string, extra map[string]any) (job.Job, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return job.Job{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	_, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return job.Job{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return job.Job{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	return s.enqueue(ctx, seasonID, jobType, requestedBy, extra)
}

func (s *RecalcService) enqueue(ctx context.Context, seasonID string, jobType job.Type, requestedBy string, extra map[string]any) (job.Job, error) {
	jobID, err := s.idGen.NewID()
	if err != nil {
		return job.Job{}, fmt.Errorf("generate job id: %w", err)
	}

	item := job.Job{
		ID:        jobID,
		Type:      jobType,
		Status:    job.StatusPending,
		Result:    extra,
		SeasonID:  seasonID,
		CreatedBy: strings.TrimSpace(requestedBy),
		CreatedAt: s.now().UTC(),
	}
	if err := s.jobRepo.Create(ctx, item); err != nil {
		return job.Job{}, fmt.Errorf("create job: %w", err)
	}

	if err := s.runner.Submit(string(jobType), func(runCtx context.Context) {
		s.run(runCtx, item)
	}); err != nil {
		s.failJob(ctx, item, fmt.Errorf("submit background task: %w", err))
		return job.Job{}, fmt.Errorf("%w: background runner rejected the job", ErrDependencyUnavailable)
	}

	return item, nil
}

// run executes the replay on the background runner. It owns the job's
// lifecycle from running to its terminal state.
func (s *RecalcService) run(ctx context.Context, item job.Job) {
	seasons, err := s.targetSeasons(ctx, item)
	if err != nil {
		s.failJob(ctx, item, err)
		return
	}

	totalGames := 0
	for _, target := range seasons {
		count, err := s.matchRepo.CountGamesBySeason(ctx, target.ID)
		if err != nil {
			s.failJob(ctx, item, fmt.Errorf("count games for season %s: %w", target.ID, err))
			return
		}
		totalGames += count
	}

	startedAt := s.now().UTC()
	item.Status = job.StatusRunning
	item.StartedAt = &startedAt
	item.TotalItems = totalGames
	s.updateJob(ctx, &item)

	processedBase := 0
	seasonStats := make([]map[string]any, 0, len(seasons))
	for _, target := range seasons {
		stats, err := s.historyRepo.ReplaySeason(ctx, target, func(processed, _ int) {
			done := processedBase + processed
			if done%progressStride != 0 && done != totalGames {
				return
			}
			item.ProcessedItems = done
			item.Progress = percent(done, totalGames)
			s.updateJob(ctx, &item)
		})
		if err != nil {
			s.failJob(ctx, item, fmt.Errorf("replay season %s: %w", target.ID, err))
			return
		}

		processedBase += stats.GamesReplayed
		seasonStats = append(seasonStats, map[string]any{
			"season_id":       target.ID,
			"season_name":     target.Name,
			"games_replayed":  stats.GamesReplayed,
			"players_seeded":  stats.PlayersSeeded,
			"entries_written": stats.EntriesWritten,
		})
	}

	completedAt := s.now().UTC()
	item.Status = job.StatusCompleted
	item.Progress = 100
	item.ProcessedItems = processedBase
	item.CompletedAt = &completedAt
	if item.Result == nil {
		item.Result = map[string]any{}
	}
	item.Result["seasons"] = seasonStats
	s.updateJob(ctx, &item)

	s.logger.InfoContext(ctx, "recalculation completed",
		"job_id", item.ID,
		"job_type", item.Type,
		"games_replayed", processedBase,
	)
}

func (s *RecalcService) targetSeasons(ctx context.Context, item job.Job) ([]season.Season, error) {
	if item.Type == job.TypeRecalculateAll {
		seasons, err := s.seasonRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list seasons: %w", err)
		}
		sort.Slice(seasons, func(i, j int) bool {
			return seasons[i].StartDate.Before(seasons[j].StartDate)
		})
		return seasons, nil
	}

	target, exists, err := s.seasonRepo.GetByID(ctx, item.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("season %s no longer exists", item.SeasonID)
	}

	return []season.Season{target}, nil
}

func (s *RecalcService) failJob(ctx context.Context, item job.Job, cause error) {
	completedAt := s.now().UTC()
	item.Status = job.StatusFailed
	item.ErrorMessage = cause.Error()
	item.CompletedAt = &completedAt
	if item.Result == nil {
		item.Result = map[string]any{}
	}
	item.Result["error"] = cause.Error()
	s.updateJob(ctx, &item)

	s.logger.ErrorContext(ctx, "recalculation failed",
		"job_id", item.ID,
		"job_type", item.Type,
		"error", cause,
	)
}

func (s *RecalcService) updateJob(ctx context.Context, item *job.Job) {
	if err := s.jobRepo.Update(ctx, *item); err != nil {
		s.logger.WarnContext(ctx, "update job failed", "job_id", item.ID, "error", err)
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	p := done * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}
