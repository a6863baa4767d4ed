package postgres

import (
	"time"

	"github.com/avelier/club-ladder/internal/domain/history"
)

type historyTableModel struct {
	ID         string    `db:"id"`
	SeasonID   string    `db:"season_id"`
	GameID     string    `db:"game_id"`
	PlayerID   string    `db:"player_id"`
	EloBefore  float64   `db:"elo_before"`
	EloAfter   float64   `db:"elo_after"`
	EloChange  float64   `db:"elo_change"`
	KFactor    float64   `db:"k_factor"`
	Won        bool      `db:"won"`
	EloVersion string    `db:"elo_version"`
	PlayedAt   time.Time `db:"played_at"`
	CreatedAt  time.Time `db:"created_at"`
}

type historyInsertModel struct {
	ID         string    `db:"id"`
	SeasonID   string    `db:"season_id"`
	GameID     string    `db:"game_id"`
	PlayerID   string    `db:"player_id"`
	EloBefore  float64   `db:"elo_before"`
	EloAfter   float64   `db:"elo_after"`
	EloChange  float64   `db:"elo_change"`
	KFactor    float64   `db:"k_factor"`
	Won        bool      `db:"won"`
	EloVersion string    `db:"elo_version"`
	PlayedAt   time.Time `db:"played_at"`
}

func (row historyTableModel) toDomain() history.Entry {
	return history.Entry{
		ID:         row.ID,
		SeasonID:   row.SeasonID,
		GameID:     row.GameID,
		PlayerID:   row.PlayerID,
		EloBefore:  row.EloBefore,
		EloAfter:   row.EloAfter,
		EloChange:  row.EloChange,
		KFactor:    row.KFactor,
		Won:        row.Won,
		EloVersion: row.EloVersion,
		PlayedAt:   row.PlayedAt,
		CreatedAt:  row.CreatedAt,
	}
}
