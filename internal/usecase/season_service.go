package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/player"
	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/cache"
	"github.com/avelier/club-ladder/internal/platform/id"
	"github.com/avelier/club-ladder/internal/platform/logging"
)

// LeaderboardCache is an optional distributed layer in front of the
// database leaderboard query, e.g. a Redis sorted set.
type LeaderboardCache interface {
	Get(ctx context.Context, seasonID string) ([]season.LeaderboardEntry, bool, error)
	Set(ctx context.Context, seasonID string, entries []season.LeaderboardEntry) error
	Invalidate(ctx context.Context, seasonID string) error
}

type SeasonService struct {
	seasonRepo season.Repository
	playerRepo player.Repository
	configSvc  *ConfigService
	recalcSvc  *RecalcService
	localCache *cache.Store
	lbCache    LeaderboardCache
	logger     *logging.Logger
	idGen      id.Generator
	now        func() time.Time
}

func NewSeasonService(
	seasonRepo season.Repository,
	playerRepo player.Repository,
	configSvc *ConfigService,
	recalcSvc *RecalcService,
	localCache *cache.Store,
	lbCache LeaderboardCache,
	logger *logging.Logger,
	idGen id.Generator,
) *SeasonService {
	if localCache == nil {
		localCache = cache.NewStore(30 * time.Second)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &SeasonService{
		seasonRepo: seasonRepo,
		playerRepo: playerRepo,
		configSvc:  configSvc,
		recalcSvc:  recalcSvc,
		localCache: localCache,
		lbCache:    lbCache,
		logger:     logger,
		idGen:      idGen,
		now:        time.Now,
	}
}

type CreateSeasonInput struct {
	Name                 string
	StartDate            time.Time
	StartingElo          float64
	KFactor              float64
	BaseKFactor          *float64
	NewPlayerKBonus      *float64
	NewPlayerBonusPeriod *int
	DecayCurve           string
	EloVersion           string
	Activate             bool
	CreatedBy            string
}

// CreateSeasonResult carries the new season plus the recalculation job
// started when the new boundary captured existing games.
type CreateSeasonResult struct {
	Season     season.Season
	RecalcJob  *job.Job
	MovedGames int
}

// CreateSeason validates uniqueness of name and start date, seeds
// player-season rows for every active player, and, when the start date
// falls inside an existing season's range, moves the captured games and
// schedules a replay of the affected seasons.
func (s *SeasonService) CreateSeason(ctx context.Context, input CreateSeasonInput) (CreateSeasonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.CreateSeason")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return CreateSeasonResult{}, fmt.Errorf("%w: season name is required", ErrInvalidInput)
	}
	if input.StartDate.IsZero() {
		return CreateSeasonResult{}, fmt.Errorf("%w: season start date is required", ErrInvalidInput)
	}

	if _, exists, err := s.seasonRepo.GetByName(ctx, name); err != nil {
		return CreateSeasonResult{}, fmt.Errorf("get season by name: %w", err)
	} else if exists {
		return CreateSeasonResult{}, fmt.Errorf("%w: season name %q already exists", ErrInvalidInput, name)
	}

	startDate := input.StartDate.UTC()
	if _, exists, err := s.seasonRepo.GetByStartDate(ctx, startDate.Unix()); err != nil {
		return CreateSeasonResult{}, fmt.Errorf("get season by start date: %w", err)
	} else if exists {
		return CreateSeasonResult{}, fmt.Errorf("%w: a season already starts at %s", ErrInvalidInput, startDate.Format(time.RFC3339))
	}

	seasonID, err := s.idGen.NewID()
	if err != nil {
		return CreateSeasonResult{}, fmt.Errorf("generate season id: %w", err)
	}

	now := s.now().UTC()
	item := season.Season{
		ID:          seasonID,
		Name:        name,
		StartDate:   startDate,
		StartingElo: input.StartingElo,
		Rating: rating.Config{
			KFactor:              input.KFactor,
			BaseKFactor:          input.BaseKFactor,
			NewPlayerKBonus:      input.NewPlayerKBonus,
			NewPlayerBonusPeriod: input.NewPlayerBonusPeriod,
			DecayCurve:           rating.DecayCurve(strings.TrimSpace(input.DecayCurve)),
		},
		EloVersion: strings.TrimSpace(input.EloVersion),
		CreatedBy:  strings.TrimSpace(input.CreatedBy),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if item.EloVersion == "" {
		item.EloVersion = "season-default"
	}
	if err := item.Validate(); err != nil {
		return CreateSeasonResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// The season owning the new start instant loses every game played
	// from that instant on.
	previous, err := s.seasonOwning(ctx, startDate)
	if err != nil {
		return CreateSeasonResult{}, err
	}

	if err := s.seasonRepo.Create(ctx, item); err != nil {
		return CreateSeasonResult{}, fmt.Errorf("create season: %w", err)
	}

	if err := s.seedActivePlayers(ctx, item); err != nil {
		return CreateSeasonResult{}, err
	}

	result := CreateSeasonResult{Season: item}
	if previous != nil {
		moved, err := s.seasonRepo.ReassignGames(ctx, previous.ID, item.ID, &startDate)
		if err != nil {
			return CreateSeasonResult{}, fmt.Errorf("reassign games to new season: %w", err)
		}
		result.MovedGames = moved
		if moved > 0 {
			recalcJob, err := s.recalcSvc.Recalculate(ctx, AllSeasons, input.CreatedBy)
			if err != nil {
				return CreateSeasonResult{}, err
			}
			result.RecalcJob = &recalcJob
		}
	}

	if input.Activate {
		activated, err := s.ActivateSeason(ctx, item.ID)
		if err != nil {
			return CreateSeasonResult{}, err
		}
		result.Season = activated
	}

	return result, nil
}

func (s *SeasonService) GetSeason(ctx context.Context, seasonID string) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.GetSeason")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return season.Season{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	item, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return season.Season{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	return item, nil
}

func (s *SeasonService) GetActiveSeason(ctx context.Context) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.GetActiveSeason")
	defer span.End()

	item, exists, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return season.Season{}, fmt.Errorf("get active season: %w", err)
	}
	if !exists {
		return season.Season{}, fmt.Errorf("%w: no active season", ErrNotFound)
	}

	return item, nil
}

func (s *SeasonService) ListSeasons(ctx context.Context) ([]season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.ListSeasons")
	defer span.End()

	items, err := s.seasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	return items, nil
}

// ActivateSeason flips the single active-season flag to the target in
// one repository transaction.
func (s *SeasonService) ActivateSeason(ctx context.Context, seasonID string) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.ActivateSeason")
	defer span.End()

	item, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return season.Season{}, err
	}
	if item.IsActive {
		return season.Season{}, fmt.Errorf("%w: season %s is already active", ErrConflict, item.ID)
	}

	if err := s.seasonRepo.Activate(ctx, item.ID); err != nil {
		return season.Season{}, fmt.Errorf("activate season: %w", err)
	}
	item.IsActive = true

	if err := s.seedActivePlayers(ctx, item); err != nil {
		return season.Season{}, err
	}

	return item, nil
}

type DeleteSeasonInput struct {
	SeasonID    string
	ReassignTo  string
	RequestedBy string
}

// DeleteSeason removes a season. When ReassignTo names another season,
// the doomed season's games move there first and the receiving season
// is replayed; otherwise the games are destroyed with the season and
// the nearest surviving neighbor is replayed to absorb the boundary
// shift. The only remaining season cannot be deleted.
func (s *SeasonService) DeleteSeason(ctx context.Context, input DeleteSeasonInput) (job.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.DeleteSeason")
	defer span.End()

	item, err := s.GetSeason(ctx, input.SeasonID)
	if err != nil {
		return job.Job{}, err
	}

	total, err := s.seasonRepo.Count(ctx)
	if err != nil {
		return job.Job{}, fmt.Errorf("count seasons: %w", err)
	}
	if total <= 1 {
		return job.Job{}, fmt.Errorf("%w: cannot delete the only remaining season", ErrInvalidInput)
	}
	if item.IsActive {
		return job.Job{}, fmt.Errorf("%w: cannot delete the active season, activate another season first", ErrConflict)
	}

	recalcTarget := strings.TrimSpace(input.ReassignTo)
	if recalcTarget != "" {
		if recalcTarget == item.ID {
			return job.Job{}, fmt.Errorf("%w: cannot reassign games to the season being deleted", ErrInvalidInput)
		}
		target, err := s.GetSeason(ctx, recalcTarget)
		if err != nil {
			return job.Job{}, err
		}
		if _, err := s.seasonRepo.ReassignGames(ctx, item.ID, target.ID, nil); err != nil {
			return job.Job{}, fmt.Errorf("reassign games before delete: %w", err)
		}
	} else {
		neighbor, err := s.nearestNeighbor(ctx, item)
		if err != nil {
			return job.Job{}, err
		}
		recalcTarget = neighbor.ID
	}

	if err := s.seasonRepo.DeleteCascade(ctx, item.ID); err != nil {
		return job.Job{}, fmt.Errorf("delete season: %w", err)
	}
	s.invalidateLeaderboard(ctx, item.ID)

	return s.recalcSvc.EnqueueSeasonRecalc(ctx, recalcTarget, job.TypeDeleteSeason, input.RequestedBy, map[string]any{
		"deleted_season_id":   item.ID,
		"deleted_season_name": item.Name,
	})
}

// SetInclusion toggles a player's leaderboard visibility for a season.
// Historical games and history rows are untouched.
func (s *SeasonService) SetInclusion(ctx context.Context, seasonID, playerID string, included bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.SetInclusion")
	defer span.End()

	item, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return err
	}

	if _, exists, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return fmt.Errorf("get player: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}

	if _, exists, err := s.seasonRepo.GetPlayerSeason(ctx, item.ID, playerID); err != nil {
		return fmt.Errorf("get player season: %w", err)
	} else if !exists {
		if err := s.seasonRepo.EnsurePlayers(ctx, item.ID, []string{playerID}, item.StartingElo); err != nil {
			return fmt.Errorf("ensure player season: %w", err)
		}
	}

	if err := s.seasonRepo.SetInclusion(ctx, item.ID, playerID, included); err != nil {
		return fmt.Errorf("set inclusion: %w", err)
	}
	s.invalidateLeaderboard(ctx, item.ID)

	return nil
}

func (s *SeasonService) SeasonPlayers(ctx context.Context, seasonID string) ([]season.PlayerSeason, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.SeasonPlayers")
	defer span.End()

	item, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	rows, err := s.seasonRepo.ListPlayerSeasons(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list player seasons: %w", err)
	}

	return rows, nil
}

// AvailablePlayers returns players not yet enrolled in the season,
// the candidates for the inclusion endpoint.
func (s *SeasonService) AvailablePlayers(ctx context.Context, seasonID string) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.AvailablePlayers")
	defer span.End()

	item, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	players, err := s.playerRepo.ListAvailableForSeason(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list available players: %w", err)
	}

	return players, nil
}

// Leaderboard returns included players ranked by current rating. Reads
// go through the optional distributed cache, then a short-TTL local
// cache in front of the database.
func (s *SeasonService) Leaderboard(ctx context.Context, seasonID string) ([]season.LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Leaderboard")
	defer span.End()

	item, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	value, err := s.localCache.GetOrLoad(ctx, "leaderboard:"+item.ID, func(ctx context.Context) (any, error) {
		if s.lbCache != nil {
			entries, hit, err := s.lbCache.Get(ctx, item.ID)
			if err != nil {
				s.logger.WarnContext(ctx, "leaderboard cache read failed", "season_id", item.ID, "error", err)
			} else if hit {
				return entries, nil
			}
		}

		entries, err := s.seasonRepo.Leaderboard(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("load leaderboard: %w", err)
		}

		if s.lbCache != nil {
			if err := s.lbCache.Set(ctx, item.ID, entries); err != nil {
				s.logger.WarnContext(ctx, "leaderboard cache write failed", "season_id", item.ID, "error", err)
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	entries, ok := value.([]season.LeaderboardEntry)
	if !ok {
		return nil, fmt.Errorf("unexpected leaderboard cache value type %T", value)
	}
	return entries, nil
}

// UpdateEloVersion applies a registered configuration's rating
// parameters to the season and schedules a replay, the correction path
// for a season rated under the wrong version.
func (s *SeasonService) UpdateEloVersion(ctx context.Context, seasonID, configVersion, requestedBy string) (job.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.UpdateEloVersion")
	defer span.End()

	item, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return job.Job{}, err
	}

	configVersion = strings.TrimSpace(configVersion)
	if configVersion == "" {
		return job.Job{}, fmt.Errorf("%w: config version is required", ErrInvalidInput)
	}
	if s.configSvc == nil {
		return job.Job{}, fmt.Errorf("%w: config registry unavailable", ErrDependencyUnavailable)
	}

	cfg, err := s.configSvc.GetConfigByVersion(ctx, configVersion)
	if err != nil {
		return job.Job{}, err
	}

	item.Rating = cfg.Rating
	item.EloVersion = cfg.Version
	item.UpdatedAt = s.now().UTC()
	if err := s.seasonRepo.Update(ctx, item); err != nil {
		return job.Job{}, fmt.Errorf("update season: %w", err)
	}
	s.invalidateLeaderboard(ctx, item.ID)

	return s.recalcSvc.EnqueueSeasonRecalc(ctx, item.ID, job.TypeRecalculateSeason, requestedBy, map[string]any{
		"elo_version": cfg.Version,
	})
}

func (s *SeasonService) seedActivePlayers(ctx context.Context, item season.Season) error {
	actives, err := s.playerRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active players: %w", err)
	}
	if len(actives) == 0 {
		return nil
	}

	ids := make([]string, 0, len(actives))
	for _, p := range actives {
		ids = append(ids, p.ID)
	}
	if err := s.seasonRepo.EnsurePlayers(ctx, item.ID, ids, item.StartingElo); err != nil {
		return fmt.Errorf("seed player seasons: %w", err)
	}

	return nil
}

// seasonOwning returns the season whose range contains the instant, or
// nil when the instant predates every season.
func (s *SeasonService) seasonOwning(ctx context.Context, at time.Time) (*season.Season, error) {
	seasons, err := s.seasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	var owner *season.Season
	for i := range seasons {
		candidate := seasons[i]
		if candidate.StartDate.After(at) {
			continue
		}
		if owner == nil || candidate.StartDate.After(owner.StartDate) {
			owner = &candidate
		}
	}

	return owner, nil
}

func (s *SeasonService) nearestNeighbor(ctx context.Context, item season.Season) (season.Season, error) {
	seasons, err := s.seasonRepo.List(ctx)
	if err != nil {
		return season.Season{}, fmt.Errorf("list seasons: %w", err)
	}

	var best *season.Season
	for i := range seasons {
		candidate := seasons[i]
		if candidate.ID == item.ID {
			continue
		}
		if best == nil || gap(candidate.StartDate, item.StartDate) < gap(best.StartDate, item.StartDate) {
			best = &candidate
		}
	}
	if best == nil {
		return season.Season{}, fmt.Errorf("%w: no adjacent season", ErrInvalidInput)
	}

	return *best, nil
}

func gap(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

func (s *SeasonService) invalidateLeaderboard(ctx context.Context, seasonID string) {
	s.localCache.Delete(ctx, "leaderboard:"+seasonID)
	if s.lbCache != nil {
		if err := s.lbCache.Invalidate(ctx, seasonID); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache invalidate failed", "season_id", seasonID, "error", err)
		}
	}
}
