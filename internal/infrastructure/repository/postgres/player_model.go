package postgres

import (
	"time"

	"github.com/avelier/club-ladder/internal/domain/player"
)

type playerTableModel struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	CurrentElo float64   `db:"current_elo"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type playerInsertModel struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	CurrentElo float64   `db:"current_elo"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:         row.ID,
		Name:       row.Name,
		CurrentElo: row.CurrentElo,
		IsActive:   row.IsActive,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}
