package postgres

import (
	"database/sql"
	"time"

	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/domain/season"
)

type seasonTableModel struct {
	ID                   string          `db:"id"`
	Name                 string          `db:"name"`
	StartDate            time.Time       `db:"start_date"`
	IsActive             bool            `db:"is_active"`
	StartingElo          float64         `db:"starting_elo"`
	KFactor              float64         `db:"k_factor"`
	BaseKFactor          sql.NullFloat64 `db:"base_k_factor"`
	NewPlayerKBonus      sql.NullFloat64 `db:"new_player_k_bonus"`
	NewPlayerBonusPeriod sql.NullInt64   `db:"new_player_bonus_period"`
	DecayCurve           string          `db:"decay_curve"`
	EloVersion           string          `db:"elo_version"`
	CreatedBy            string          `db:"created_by"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

type seasonInsertModel struct {
	ID                   string          `db:"id"`
	Name                 string          `db:"name"`
	StartDate            time.Time       `db:"start_date"`
	IsActive             bool            `db:"is_active"`
	StartingElo          float64         `db:"starting_elo"`
	KFactor              float64         `db:"k_factor"`
	BaseKFactor          sql.NullFloat64 `db:"base_k_factor"`
	NewPlayerKBonus      sql.NullFloat64 `db:"new_player_k_bonus"`
	NewPlayerBonusPeriod sql.NullInt64   `db:"new_player_bonus_period"`
	DecayCurve           string          `db:"decay_curve"`
	EloVersion           string          `db:"elo_version"`
	CreatedBy            string          `db:"created_by"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

type playerSeasonTableModel struct {
	PlayerID    string    `db:"player_id"`
	SeasonID    string    `db:"season_id"`
	CurrentElo  float64   `db:"current_elo"`
	GamesPlayed int       `db:"games_played"`
	Wins        int       `db:"wins"`
	Losses      int       `db:"losses"`
	IsIncluded  bool      `db:"is_included"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type leaderboardRowModel struct {
	PlayerID    string  `db:"player_id"`
	PlayerName  string  `db:"player_name"`
	CurrentElo  float64 `db:"current_elo"`
	GamesPlayed int     `db:"games_played"`
	Wins        int     `db:"wins"`
	Losses      int     `db:"losses"`
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtrFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtrFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func (row seasonTableModel) toDomain() season.Season {
	return season.Season{
		ID:          row.ID,
		Name:        row.Name,
		StartDate:   row.StartDate,
		IsActive:    row.IsActive,
		StartingElo: row.StartingElo,
		Rating: rating.Config{
			KFactor:              row.KFactor,
			BaseKFactor:          floatPtrFromNull(row.BaseKFactor),
			NewPlayerKBonus:      floatPtrFromNull(row.NewPlayerKBonus),
			NewPlayerBonusPeriod: intPtrFromNull(row.NewPlayerBonusPeriod),
			DecayCurve:           rating.DecayCurve(row.DecayCurve),
		},
		EloVersion: row.EloVersion,
		CreatedBy:  row.CreatedBy,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func (row playerSeasonTableModel) toDomain() season.PlayerSeason {
	return season.PlayerSeason{
		PlayerID:    row.PlayerID,
		SeasonID:    row.SeasonID,
		CurrentElo:  row.CurrentElo,
		GamesPlayed: row.GamesPlayed,
		Wins:        row.Wins,
		Losses:      row.Losses,
		IsIncluded:  row.IsIncluded,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
