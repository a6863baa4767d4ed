package player

import (
	"fmt"
	"strings"
	"time"
)

// Player is a club member on the ladder. CurrentElo mirrors the
// player's all-time season rating and is rebuilt by recalculation,
// never incremented ad hoc.
type Player struct {
	ID         string
	Name       string
	CurrentElo float64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}

	return nil
}
