package postgres

import (
	"time"

	"github.com/avelier/club-ladder/internal/domain/match"
)

type matchTableModel struct {
	ID          string    `db:"id"`
	SeasonID    string    `db:"season_id"`
	Player1ID   string    `db:"player1_id"`
	Player2ID   string    `db:"player2_id"`
	SubmittedAt time.Time `db:"submitted_at"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type matchInsertModel struct {
	ID          string    `db:"id"`
	SeasonID    string    `db:"season_id"`
	Player1ID   string    `db:"player1_id"`
	Player2ID   string    `db:"player2_id"`
	SubmittedAt time.Time `db:"submitted_at"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type gameTableModel struct {
	ID         string    `db:"id"`
	MatchID    string    `db:"match_id"`
	SeasonID   string    `db:"season_id"`
	WinnerID   string    `db:"winner_id"`
	LoserID    string    `db:"loser_id"`
	PlayedAt   time.Time `db:"played_at"`
	EloVersion string    `db:"elo_version"`
}

type gameInsertModel struct {
	ID         string    `db:"id"`
	MatchID    string    `db:"match_id"`
	SeasonID   string    `db:"season_id"`
	WinnerID   string    `db:"winner_id"`
	LoserID    string    `db:"loser_id"`
	PlayedAt   time.Time `db:"played_at"`
	EloVersion string    `db:"elo_version"`
}

func (row matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:          row.ID,
		SeasonID:    row.SeasonID,
		Player1ID:   row.Player1ID,
		Player2ID:   row.Player2ID,
		SubmittedAt: row.SubmittedAt,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
	}
}

func (row gameTableModel) toDomain() match.Game {
	return match.Game{
		ID:         row.ID,
		MatchID:    row.MatchID,
		SeasonID:   row.SeasonID,
		WinnerID:   row.WinnerID,
		LoserID:    row.LoserID,
		PlayedAt:   row.PlayedAt,
		EloVersion: row.EloVersion,
	}
}
