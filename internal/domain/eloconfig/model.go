package eloconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/rating"
)

// Config is a named, versioned rating policy. Configs are added and
// activated, never edited in place; games and history rows keep the
// version string that was active when they were rated.
type Config struct {
	ID          string
	Version     string
	Description string
	StartingElo float64
	Rating      rating.Config
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	maxVersionLen     = 50
	maxDescriptionLen = 500
	minKFactor        = 1
	maxKFactor        = 100
	minStartingElo    = 100
	maxStartingElo    = 3000
)

func (c Config) Validate() error {
	version := strings.TrimSpace(c.Version)
	if version == "" {
		return fmt.Errorf("version name is required")
	}
	if len(version) > maxVersionLen {
		return fmt.Errorf("version name exceeds %d characters", maxVersionLen)
	}
	if len(c.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	if c.StartingElo < minStartingElo || c.StartingElo > maxStartingElo {
		return fmt.Errorf("starting elo must be between %d and %d", minStartingElo, maxStartingElo)
	}

	if c.Rating.Dynamic() {
		if *c.Rating.BaseKFactor < minKFactor || *c.Rating.BaseKFactor > maxKFactor {
			return fmt.Errorf("base k-factor must be between %d and %d", minKFactor, maxKFactor)
		}
		if *c.Rating.NewPlayerKBonus < 0 {
			return fmt.Errorf("new player k bonus must not be negative")
		}
		if *c.Rating.NewPlayerBonusPeriod <= 0 {
			return fmt.Errorf("new player bonus period must be positive")
		}
		switch c.Rating.DecayCurve {
		case "", rating.DecayLinear, rating.DecayExponential:
		default:
			return fmt.Errorf("unknown decay curve %q", c.Rating.DecayCurve)
		}
		return nil
	}

	if c.Rating.KFactor < minKFactor || c.Rating.KFactor > maxKFactor {
		return fmt.Errorf("k-factor must be between %d and %d", minKFactor, maxKFactor)
	}

	return nil
}
