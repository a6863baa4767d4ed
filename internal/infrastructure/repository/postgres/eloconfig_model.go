package postgres

import (
	"database/sql"
	"time"

	"github.com/avelier/club-ladder/internal/domain/eloconfig"
	"github.com/avelier/club-ladder/internal/domain/rating"
)

type eloConfigTableModel struct {
	ID                   string          `db:"id"`
	Version              string          `db:"version"`
	Description          string          `db:"description"`
	StartingElo          float64         `db:"starting_elo"`
	KFactor              float64         `db:"k_factor"`
	BaseKFactor          sql.NullFloat64 `db:"base_k_factor"`
	NewPlayerKBonus      sql.NullFloat64 `db:"new_player_k_bonus"`
	NewPlayerBonusPeriod sql.NullInt64   `db:"new_player_bonus_period"`
	DecayCurve           string          `db:"decay_curve"`
	IsActive             bool            `db:"is_active"`
	CreatedBy            string          `db:"created_by"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

type eloConfigInsertModel struct {
	ID                   string          `db:"id"`
	Version              string          `db:"version"`
	Description          string          `db:"description"`
	StartingElo          float64         `db:"starting_elo"`
	KFactor              float64         `db:"k_factor"`
	BaseKFactor          sql.NullFloat64 `db:"base_k_factor"`
	NewPlayerKBonus      sql.NullFloat64 `db:"new_player_k_bonus"`
	NewPlayerBonusPeriod sql.NullInt64   `db:"new_player_bonus_period"`
	DecayCurve           string          `db:"decay_curve"`
	IsActive             bool            `db:"is_active"`
	CreatedBy            string          `db:"created_by"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

func (row eloConfigTableModel) toDomain() eloconfig.Config {
	return eloconfig.Config{
		ID:          row.ID,
		Version:     row.Version,
		Description: row.Description,
		StartingElo: row.StartingElo,
		Rating: rating.Config{
			KFactor:              row.KFactor,
			BaseKFactor:          floatPtrFromNull(row.BaseKFactor),
			NewPlayerKBonus:      floatPtrFromNull(row.NewPlayerKBonus),
			NewPlayerBonusPeriod: intPtrFromNull(row.NewPlayerBonusPeriod),
			DecayCurve:           rating.DecayCurve(row.DecayCurve),
		},
		IsActive:  row.IsActive,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
