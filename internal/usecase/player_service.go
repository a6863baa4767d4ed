package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/player"
	"github.com/avelier/club-ladder/internal/platform/id"
)

type PlayerService struct {
	playerRepo player.Repository
	idGen      id.Generator
	now        func() time.Time
}

func NewPlayerService(playerRepo player.Repository, idGen id.Generator) *PlayerService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &PlayerService{
		playerRepo: playerRepo,
		idGen:      idGen,
		now:        time.Now,
	}
}

type CreatePlayerInput struct {
	Name        string
	StartingElo float64
}

func (s *PlayerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.CreatePlayer")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return player.Player{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	_, exists, err := s.playerRepo.GetByName(ctx, name)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player by name: %w", err)
	}
	if exists {
		return player.Player{}, fmt.Errorf("%w: player name %q already exists", ErrConflict, name)
	}

	playerID, err := s.idGen.NewID()
	if err != nil {
		return player.Player{}, fmt.Errorf("generate player id: %w", err)
	}

	now := s.now().UTC()
	item := player.Player{
		ID:         playerID,
		Name:       name,
		CurrentElo: input.StartingElo,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := item.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.playerRepo.Create(ctx, item); err != nil {
		return player.Player{}, fmt.Errorf("create player: %w", err)
	}

	return item, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetPlayer")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	item, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}

	return item, nil
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListPlayers")
	defer span.End()

	items, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	return items, nil
}

type UpdatePlayerInput struct {
	Name     *string
	IsActive *bool
}

// UpdatePlayer renames or (de)activates a player. Deactivation only
// blocks future match submissions; history stays intact.
func (s *PlayerService) UpdatePlayer(ctx context.Context, playerID string, input UpdatePlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.UpdatePlayer")
	defer span.End()

	item, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return player.Player{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return player.Player{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
		}
		if name != item.Name {
			other, exists, err := s.playerRepo.GetByName(ctx, name)
			if err != nil {
				return player.Player{}, fmt.Errorf("get player by name: %w", err)
			}
			if exists && other.ID != item.ID {
				return player.Player{}, fmt.Errorf("%w: player name %q already exists", ErrConflict, name)
			}
			item.Name = name
		}
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	item.UpdatedAt = s.now().UTC()

	if err := s.playerRepo.Update(ctx, item); err != nil {
		return player.Player{}, fmt.Errorf("update player: %w", err)
	}

	return item, nil
}
