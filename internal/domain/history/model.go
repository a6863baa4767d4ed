package history

import "time"

// Entry records one player's side of a game's rating movement, tagged
// with the configuration version in force when the game was rated.
// Entries are immutable until a recalculation rewrites the season.
type Entry struct {
	ID         string
	SeasonID   string
	GameID     string
	PlayerID   string
	EloBefore  float64
	EloAfter   float64
	EloChange  float64
	KFactor    float64
	Won        bool
	EloVersion string
	PlayedAt   time.Time
	CreatedAt  time.Time
}

// ReplayStats summarizes a completed season replay.
type ReplayStats struct {
	GamesReplayed  int
	PlayersSeeded  int
	EntriesWritten int
}
