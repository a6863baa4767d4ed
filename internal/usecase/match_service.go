package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/match"
	"github.com/avelier/club-ladder/internal/domain/player"
	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/id"
)

// gameSpacing is the synthetic gap between a match's games: the last
// game lands on submitted_at, earlier games step back in 5-minute
// intervals, preserving intra-match order for replay.
const gameSpacing = 5 * time.Minute

const (
	GameWinnerPlayer1 = "player1"
	GameWinnerPlayer2 = "player2"
)

type MatchService struct {
	playerRepo player.Repository
	seasonRepo season.Repository
	matchRepo  match.Repository
	configSvc  *ConfigService
	recalcSvc  *RecalcService
	idGen      id.Generator
	now        func() time.Time
}

func NewMatchService(
	playerRepo player.Repository,
	seasonRepo season.Repository,
	matchRepo match.Repository,
	configSvc *ConfigService,
	recalcSvc *RecalcService,
	idGen id.Generator,
) *MatchService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &MatchService{
		playerRepo: playerRepo,
		seasonRepo: seasonRepo,
		matchRepo:  matchRepo,
		configSvc:  configSvc,
		recalcSvc:  recalcSvc,
		idGen:      idGen,
		now:        time.Now,
	}
}

type SubmitMatchInput struct {
	Player1ID   string
	Player2ID   string
	Games       []string // GameWinnerPlayer1 or GameWinnerPlayer2, in played order
	SubmittedAt *time.Time
	CreatedBy   string
}

// SubmitMatch validates, normalizes and applies a full match in one
// transaction. Each game observes the post-state of the previous one,
// including per-game K-factor resolution as experience accumulates
// within the match.
func (s *MatchService) SubmitMatch(ctx context.Context, input SubmitMatchInput) (match.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitMatch")
	defer span.End()

	player1ID := strings.TrimSpace(input.Player1ID)
	player2ID := strings.TrimSpace(input.Player2ID)
	if player1ID == "" || player2ID == "" {
		return match.Result{}, fmt.Errorf("%w: both player ids are required", ErrInvalidInput)
	}
	if player1ID == player2ID {
		return match.Result{}, fmt.Errorf("%w: a player cannot play against themselves", ErrInvalidInput)
	}
	if len(input.Games) == 0 {
		return match.Result{}, fmt.Errorf("%w: at least one game is required", ErrInvalidInput)
	}

	player1, err := s.ratedPlayer(ctx, player1ID)
	if err != nil {
		return match.Result{}, err
	}
	player2, err := s.ratedPlayer(ctx, player2ID)
	if err != nil {
		return match.Result{}, err
	}

	activeSeason, exists, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return match.Result{}, fmt.Errorf("get active season: %w", err)
	}
	if !exists {
		return match.Result{}, fmt.Errorf("%w: no active season", ErrInvalidInput)
	}

	if err := s.ensureIncluded(ctx, activeSeason, player1.ID); err != nil {
		return match.Result{}, err
	}
	if err := s.ensureIncluded(ctx, activeSeason, player2.ID); err != nil {
		return match.Result{}, err
	}

	submittedAt := s.now().UTC()
	if input.SubmittedAt != nil {
		submittedAt = input.SubmittedAt.UTC()
	}

	eloVersion := activeSeason.EloVersion
	if s.configSvc != nil {
		active, cfgErr := s.configSvc.GetActiveConfig(ctx)
		if cfgErr == nil {
			eloVersion = active.Version
		} else if !errors.Is(cfgErr, ErrNotFound) {
			return match.Result{}, cfgErr
		}
	}

	matchID, err := s.idGen.NewID()
	if err != nil {
		return match.Result{}, fmt.Errorf("generate match id: %w", err)
	}

	item := match.Match{
		ID:          matchID,
		SeasonID:    activeSeason.ID,
		Player1ID:   player1.ID,
		Player2ID:   player2.ID,
		SubmittedAt: submittedAt,
		CreatedBy:   strings.TrimSpace(input.CreatedBy),
		CreatedAt:   s.now().UTC(),
	}

	numGames := len(input.Games)
	for i, winner := range input.Games {
		gameID, err := s.idGen.NewID()
		if err != nil {
			return match.Result{}, fmt.Errorf("generate game id: %w", err)
		}

		g := match.Game{
			ID:         gameID,
			MatchID:    matchID,
			SeasonID:   activeSeason.ID,
			PlayedAt:   submittedAt.Add(-time.Duration(numGames-1-i) * gameSpacing),
			EloVersion: eloVersion,
		}
		switch winner {
		case GameWinnerPlayer1:
			g.WinnerID, g.LoserID = player1.ID, player2.ID
		case GameWinnerPlayer2:
			g.WinnerID, g.LoserID = player2.ID, player1.ID
		default:
			return match.Result{}, fmt.Errorf("%w: game %d winner must be %q or %q", ErrInvalidInput, i+1, GameWinnerPlayer1, GameWinnerPlayer2)
		}
		item.Games = append(item.Games, g)
	}

	if err := item.Validate(); err != nil {
		return match.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result, err := s.matchRepo.ApplySubmission(ctx, activeSeason, item)
	if err != nil {
		if errors.Is(err, season.ErrLocked) {
			return match.Result{}, fmt.Errorf("%w: season %s", ErrSeasonBusy, activeSeason.ID)
		}
		return match.Result{}, fmt.Errorf("apply match submission: %w", err)
	}

	return result, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	return item, nil
}

func (s *MatchService) ListMatches(ctx context.Context, seasonID string, limit, offset int) ([]match.Match, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListMatches")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID != "" {
		_, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
		if err != nil {
			return nil, 0, fmt.Errorf("get season: %w", err)
		}
		if !exists {
			return nil, 0, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
		}
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.matchRepo.List(ctx, seasonID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}

	return items, total, nil
}

// DeleteMatch cascades the match and its games, then enqueues a season
// recalculation to rebuild the derived rating state. The returned job
// is the caller's handle on that rebuild.
func (s *MatchService) DeleteMatch(ctx context.Context, matchID, requestedBy string) (job.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.DeleteMatch")
	defer span.End()

	item, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return job.Job{}, err
	}

	if err := s.matchRepo.DeleteCascade(ctx, item.ID); err != nil {
		return job.Job{}, fmt.Errorf("delete match: %w", err)
	}

	return s.recalcSvc.EnqueueSeasonRecalc(ctx, item.SeasonID, job.TypeDeleteMatch, requestedBy, map[string]any{
		"deleted_match_id": item.ID,
	})
}

func (s *MatchService) ratedPlayer(ctx context.Context, playerID string) (player.Player, error) {
	item, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}
	if !item.IsActive {
		return player.Player{}, fmt.Errorf("%w: player %s is inactive", ErrInvalidInput, item.ID)
	}

	return item, nil
}

func (s *MatchService) ensureIncluded(ctx context.Context, activeSeason season.Season, playerID string) error {
	ps, exists, err := s.seasonRepo.GetPlayerSeason(ctx, activeSeason.ID, playerID)
	if err != nil {
		return fmt.Errorf("get player season: %w", err)
	}
	if !exists {
		if err := s.seasonRepo.EnsurePlayers(ctx, activeSeason.ID, []string{playerID}, activeSeason.StartingElo); err != nil {
			return fmt.Errorf("ensure player season: %w", err)
		}
		return nil
	}
	if !ps.IsIncluded {
		return fmt.Errorf("%w: player %s is excluded from season %s", ErrInvalidInput, playerID, activeSeason.ID)
	}

	return nil
}
