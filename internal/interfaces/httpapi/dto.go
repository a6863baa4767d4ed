package httpapi

import (
	"time"

	"github.com/avelier/club-ladder/internal/domain/eloconfig"
	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/match"
	"github.com/avelier/club-ladder/internal/domain/player"
	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/domain/season"
)

type playerDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CurrentElo float64   `json:"current_elo"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:         p.ID,
		Name:       p.Name,
		CurrentElo: p.CurrentElo,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type ratingConfigDTO struct {
	KFactor              float64  `json:"k_factor"`
	BaseKFactor          *float64 `json:"base_k_factor,omitempty"`
	NewPlayerKBonus      *float64 `json:"new_player_k_bonus,omitempty"`
	NewPlayerBonusPeriod *int     `json:"new_player_bonus_period,omitempty"`
	DecayCurve           string   `json:"decay_curve,omitempty"`
}

func ratingConfigToDTO(c rating.Config) ratingConfigDTO {
	return ratingConfigDTO{
		KFactor:              c.KFactor,
		BaseKFactor:          c.BaseKFactor,
		NewPlayerKBonus:      c.NewPlayerKBonus,
		NewPlayerBonusPeriod: c.NewPlayerBonusPeriod,
		DecayCurve:           string(c.DecayCurve),
	}
}

type seasonDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	StartDate   time.Time       `json:"start_date"`
	IsActive    bool            `json:"is_active"`
	StartingElo float64         `json:"starting_elo"`
	Rating      ratingConfigDTO `json:"rating"`
	EloVersion  string          `json:"elo_version"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func seasonToDTO(s season.Season) seasonDTO {
	return seasonDTO{
		ID:          s.ID,
		Name:        s.Name,
		StartDate:   s.StartDate,
		IsActive:    s.IsActive,
		StartingElo: s.StartingElo,
		Rating:      ratingConfigToDTO(s.Rating),
		EloVersion:  s.EloVersion,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type playerSeasonDTO struct {
	PlayerID    string  `json:"player_id"`
	SeasonID    string  `json:"season_id"`
	CurrentElo  float64 `json:"current_elo"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	IsIncluded  bool    `json:"is_included"`
}

func playerSeasonToDTO(ps season.PlayerSeason) playerSeasonDTO {
	return playerSeasonDTO{
		PlayerID:    ps.PlayerID,
		SeasonID:    ps.SeasonID,
		CurrentElo:  ps.CurrentElo,
		GamesPlayed: ps.GamesPlayed,
		Wins:        ps.Wins,
		Losses:      ps.Losses,
		IsIncluded:  ps.IsIncluded,
	}
}

type leaderboardEntryDTO struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	PlayerName  string  `json:"player_name"`
	CurrentElo  float64 `json:"current_elo"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
}

func leaderboardEntryToDTO(e season.LeaderboardEntry) leaderboardEntryDTO {
	return leaderboardEntryDTO{
		Rank:        e.Rank,
		PlayerID:    e.PlayerID,
		PlayerName:  e.PlayerName,
		CurrentElo:  e.CurrentElo,
		GamesPlayed: e.GamesPlayed,
		Wins:        e.Wins,
		Losses:      e.Losses,
	}
}

type gameDTO struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"match_id"`
	SeasonID   string    `json:"season_id"`
	WinnerID   string    `json:"winner_id"`
	LoserID    string    `json:"loser_id"`
	PlayedAt   time.Time `json:"played_at"`
	EloVersion string    `json:"elo_version"`
}

func gameToDTO(g match.Game) gameDTO {
	return gameDTO{
		ID:         g.ID,
		MatchID:    g.MatchID,
		SeasonID:   g.SeasonID,
		WinnerID:   g.WinnerID,
		LoserID:    g.LoserID,
		PlayedAt:   g.PlayedAt,
		EloVersion: g.EloVersion,
	}
}

type matchDTO struct {
	ID          string    `json:"id"`
	SeasonID    string    `json:"season_id"`
	Player1ID   string    `json:"player1_id"`
	Player2ID   string    `json:"player2_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
	Games       []gameDTO `json:"games"`
}

func matchToDTO(m match.Match) matchDTO {
	games := make([]gameDTO, 0, len(m.Games))
	for _, g := range m.Games {
		games = append(games, gameToDTO(g))
	}

	return matchDTO{
		ID:          m.ID,
		SeasonID:    m.SeasonID,
		Player1ID:   m.Player1ID,
		Player2ID:   m.Player2ID,
		SubmittedAt: m.SubmittedAt,
		CreatedBy:   m.CreatedBy,
		Games:       games,
	}
}

type ratingMovementDTO struct {
	PlayerID  string  `json:"player_id"`
	EloBefore float64 `json:"elo_before"`
	EloAfter  float64 `json:"elo_after"`
	EloChange float64 `json:"elo_change"`
	KFactor   float64 `json:"k_factor"`
}

func ratingMovementToDTO(e rating.HistoryEntry) ratingMovementDTO {
	return ratingMovementDTO{
		PlayerID:  e.PlayerID,
		EloBefore: e.EloBefore,
		EloAfter:  e.EloAfter,
		EloChange: e.EloChange,
		KFactor:   e.KFactor,
	}
}

type gameResultDTO struct {
	Game   gameDTO           `json:"game"`
	Winner ratingMovementDTO `json:"winner"`
	Loser  ratingMovementDTO `json:"loser"`
}

type matchResultDTO struct {
	Match matchDTO        `json:"match"`
	Games []gameResultDTO `json:"games"`
}

func matchResultToDTO(res match.Result) matchResultDTO {
	games := make([]gameResultDTO, 0, len(res.Games))
	for _, gr := range res.Games {
		games = append(games, gameResultDTO{
			Game:   gameToDTO(gr.Game),
			Winner: ratingMovementToDTO(gr.Winner),
			Loser:  ratingMovementToDTO(gr.Loser),
		})
	}

	return matchResultDTO{
		Match: matchToDTO(res.Match),
		Games: games,
	}
}

type jobDTO struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Status         string         `json:"status"`
	Progress       int            `json:"progress"`
	TotalItems     int            `json:"total_items"`
	ProcessedItems int            `json:"processed_items"`
	Result         map[string]any `json:"result,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	SeasonID       string         `json:"season_id,omitempty"`
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

func jobToDTO(j job.Job) jobDTO {
	return jobDTO{
		ID:             j.ID,
		Type:           string(j.Type),
		Status:         string(j.Status),
		Progress:       j.Progress,
		TotalItems:     j.TotalItems,
		ProcessedItems: j.ProcessedItems,
		Result:         j.Result,
		ErrorMessage:   j.ErrorMessage,
		SeasonID:       j.SeasonID,
		CreatedBy:      j.CreatedBy,
		CreatedAt:      j.CreatedAt,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
	}
}

type configDTO struct {
	ID          string          `json:"id"`
	Version     string          `json:"version"`
	Description string          `json:"description,omitempty"`
	StartingElo float64         `json:"starting_elo"`
	Rating      ratingConfigDTO `json:"rating"`
	IsActive    bool            `json:"is_active"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func configToDTO(c eloconfig.Config) configDTO {
	return configDTO{
		ID:          c.ID,
		Version:     c.Version,
		Description: c.Description,
		StartingElo: c.StartingElo,
		Rating:      ratingConfigToDTO(c.Rating),
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
