package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/eloconfig"
	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/platform/id"
)

type ConfigService struct {
	configRepo eloconfig.Repository
	idGen      id.Generator
	now        func() time.Time
}

func NewConfigService(configRepo eloconfig.Repository, idGen id.Generator) *ConfigService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &ConfigService{
		configRepo: configRepo,
		idGen:      idGen,
		now:        time.Now,
	}
}

type CreateConfigInput struct {
	Version              string
	Description          string
	StartingElo          float64
	KFactor              float64
	BaseKFactor          *float64
	NewPlayerKBonus      *float64
	NewPlayerBonusPeriod *int
	DecayCurve           string
	CreatedBy            string
}

// CreateConfig registers a new named rating policy. Existing configs
// are never edited; corrections are new versions.
func (s *ConfigService) CreateConfig(ctx context.Context, input CreateConfigInput) (eloconfig.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfigService.CreateConfig")
	defer span.End()

	version := strings.TrimSpace(input.Version)
	if version == "" {
		return eloconfig.Config{}, fmt.Errorf("%w: version name is required", ErrInvalidInput)
	}

	configID, err := s.idGen.NewID()
	if err != nil {
		return eloconfig.Config{}, fmt.Errorf("generate config id: %w", err)
	}

	now := s.now().UTC()
	item := eloconfig.Config{
		ID:          configID,
		Version:     version,
		Description: strings.TrimSpace(input.Description),
		StartingElo: input.StartingElo,
		Rating: rating.Config{
			KFactor:              input.KFactor,
			BaseKFactor:          input.BaseKFactor,
			NewPlayerKBonus:      input.NewPlayerKBonus,
			NewPlayerBonusPeriod: input.NewPlayerBonusPeriod,
			DecayCurve:           rating.DecayCurve(strings.TrimSpace(input.DecayCurve)),
		},
		CreatedBy: strings.TrimSpace(input.CreatedBy),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return eloconfig.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	_, exists, err := s.configRepo.GetByVersion(ctx, version)
	if err != nil {
		return eloconfig.Config{}, fmt.Errorf("get config by version: %w", err)
	}
	if exists {
		return eloconfig.Config{}, fmt.Errorf("%w: config version %q already exists", ErrConflict, version)
	}

	if err := s.configRepo.Create(ctx, item); err != nil {
		return eloconfig.Config{}, fmt.Errorf("create config: %w", err)
	}

	return item, nil
}

func (s *ConfigService) GetConfig(ctx context.Context, configID string) (eloconfig.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfigService.GetConfig")
	defer span.End()

	configID = strings.TrimSpace(configID)
	if configID == "" {
		return eloconfig.Config{}, fmt.Errorf("%w: config id is required", ErrInvalidInput)
	}

	item, exists, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return eloconfig.Config{}, fmt.Errorf("get config: %w", err)
	}
	if !exists {
		return eloconfig.Config{}, fmt.Errorf("%w: config=%s", ErrNotFound, configID)
	}

	return item, nil
}

func (s *ConfigService) GetConfigByVersion(ctx context.Context, version string) (eloconfig.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfigService.GetConfigByVersion")
	defer span.End()

	version = strings.TrimSpace(version)
	if version == "" {
		return eloconfig.Config{}, fmt.Errorf("%w: config version is required", ErrInvalidInput)
	}

	item, exists, err := s.configRepo.GetByVersion(ctx, version)
	if err != nil {
		return eloconfig.Config{}, fmt.Errorf("get config by version: %w", err)
	}
	if !exists {
		return eloconfig.Config{}, fmt.Errorf("%w: config version=%s", ErrNotFound, version)
	}

	return item, nil
}

func (s *ConfigService) GetActiveConfig(ctx context.Context) (eloconfig.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfigService.GetActiveConfig")
	defer span.End()

	item, exists, err := s.configRepo.GetActive(ctx)
	if err != nil {
		return eloconfig.Config{}, fmt.Errorf("get active config: %w", err)
	}
	if !exists {
		return eloconfig.Config{}, fmt.Errorf("%w: no active config", ErrNotFound)
	}

	return item, nil
}

func (s *ConfigService) ListConfigs(ctx context.Context) ([]eloconfig.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfigService.ListConfigs")
	defer span.End()

	items, err := s.configRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	return items, nil
}

// ActivateConfig makes the target the single active configuration.
// Only future games pick up the new version tag; history keeps the
// version it was rated under.
func (s *ConfigService) ActivateConfig(ctx context.Context, configID string) (eloconfig.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfigService.ActivateConfig")
	defer span.End()

	item, err := s.GetConfig(ctx, configID)
	if err != nil {
		return eloconfig.Config{}, err
	}
	if item.IsActive {
		return eloconfig.Config{}, fmt.Errorf("%w: config %s is already active", ErrConflict, item.ID)
	}

	if err := s.configRepo.Activate(ctx, item.ID); err != nil {
		return eloconfig.Config{}, fmt.Errorf("activate config: %w", err)
	}
	item.IsActive = true

	return item, nil
}
