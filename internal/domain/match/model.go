package match

import (
	"fmt"
	"time"

	"github.com/avelier/club-ladder/internal/domain/rating"
)

// Match groups the games of one ladder encounter between two distinct
// players. Games carry the chronology; the match itself only records
// who met and when the result was submitted.
type Match struct {
	ID          string
	SeasonID    string
	Player1ID   string
	Player2ID   string
	SubmittedAt time.Time
	CreatedBy   string
	CreatedAt   time.Time
	Games       []Game
}

// Game is the atomic rated unit. The winner slot is normalized at
// persistence time; there are no ties.
type Game struct {
	ID         string
	MatchID    string
	SeasonID   string
	WinnerID   string
	LoserID    string
	PlayedAt   time.Time
	EloVersion string
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.SeasonID == "" {
		return fmt.Errorf("match season id is required")
	}
	if m.Player1ID == "" || m.Player2ID == "" {
		return fmt.Errorf("match requires two players")
	}
	if m.Player1ID == m.Player2ID {
		return fmt.Errorf("match players must be distinct")
	}
	if len(m.Games) == 0 {
		return fmt.Errorf("match requires at least one game")
	}
	for _, g := range m.Games {
		if g.WinnerID != m.Player1ID && g.WinnerID != m.Player2ID {
			return fmt.Errorf("game %s winner is not a match participant", g.ID)
		}
		if g.LoserID != m.Player1ID && g.LoserID != m.Player2ID {
			return fmt.Errorf("game %s loser is not a match participant", g.ID)
		}
		if g.WinnerID == g.LoserID {
			return fmt.Errorf("game %s winner and loser are the same player", g.ID)
		}
	}

	return nil
}

// GameResult pairs a persisted game with both players' rating movement.
type GameResult struct {
	Game   Game
	Winner rating.HistoryEntry
	Loser  rating.HistoryEntry
}

// Result is the outcome of applying a full match submission.
type Result struct {
	Match Match
	Games []GameResult
}
