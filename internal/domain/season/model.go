package season

import (
	"fmt"
	"strings"
	"time"

	"github.com/avelier/club-ladder/internal/domain/rating"
)

// Season is a sequential time partition with its own starting rating
// and rating parameters. A season's effective end is the next season's
// start date; exactly one season is active at a time.
type Season struct {
	ID          string
	Name        string
	StartDate   time.Time
	IsActive    bool
	StartingElo float64
	Rating      rating.Config
	EloVersion  string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Season) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("season id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("season name is required")
	}
	if s.StartDate.IsZero() {
		return fmt.Errorf("season start date is required")
	}
	if s.StartingElo <= 0 {
		return fmt.Errorf("season starting elo must be positive")
	}
	if !s.Rating.Dynamic() && s.Rating.KFactor <= 0 {
		return fmt.Errorf("season k-factor must be positive")
	}

	return nil
}

// PlayerSeason is the per (player, season) aggregate. Its rating fields
// are derived state owned by ingestion and recalculation.
type PlayerSeason struct {
	PlayerID    string
	SeasonID    string
	CurrentElo  float64
	GamesPlayed int
	Wins        int
	Losses      int
	IsIncluded  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LeaderboardEntry is one visible row of a season's standings.
type LeaderboardEntry struct {
	Rank        int
	PlayerID    string
	PlayerName  string
	CurrentElo  float64
	GamesPlayed int
	Wins        int
	Losses      int
}
