package rating

import (
	"fmt"
	"time"
)

// PlayerState is the mutable per-player season aggregate tracked while
// games are applied.
type PlayerState struct {
	Elo         float64
	GamesPlayed int
	Wins        int
	Losses      int
}

// GameRecord is one game in canonical order. The winner and loser slots
// are already normalized.
type GameRecord struct {
	ID       string
	WinnerID string
	LoserID  string
	PlayedAt time.Time
}

// HistoryEntry is one side of a game's rating movement.
type HistoryEntry struct {
	GameID    string
	PlayerID  string
	EloBefore float64
	EloAfter  float64
	EloChange float64
	KFactor   float64
	Won       bool
	PlayedAt  time.Time
}

// GameOutcome pairs the two history entries produced by one game.
type GameOutcome struct {
	Winner HistoryEntry
	Loser  HistoryEntry
}

// ApplyGame resolves per-player K-factors from the players' experience
// counts at this moment, applies the exchange, and mutates both states.
// A missing state is a consistency failure: the game references a player
// who is not part of the season.
func ApplyGame(states map[string]*PlayerState, g GameRecord, cfg Config) (GameOutcome, error) {
	if g.WinnerID == g.LoserID {
		return GameOutcome{}, fmt.Errorf("game %s: winner and loser are the same player", g.ID)
	}

	winner, ok := states[g.WinnerID]
	if !ok {
		return GameOutcome{}, fmt.Errorf("game %s: player %s has no season state", g.ID, g.WinnerID)
	}
	loser, ok := states[g.LoserID]
	if !ok {
		return GameOutcome{}, fmt.Errorf("game %s: player %s has no season state", g.ID, g.LoserID)
	}

	winnerK := EffectiveK(cfg, winner.GamesPlayed)
	loserK := EffectiveK(cfg, loser.GamesPlayed)
	exchange := Apply(winner.Elo, loser.Elo, winnerK, loserK)

	winner.Elo = exchange.WinnerAfter
	winner.GamesPlayed++
	winner.Wins++
	loser.Elo = exchange.LoserAfter
	loser.GamesPlayed++
	loser.Losses++

	return GameOutcome{
		Winner: HistoryEntry{
			GameID:    g.ID,
			PlayerID:  g.WinnerID,
			EloBefore: exchange.WinnerBefore,
			EloAfter:  exchange.WinnerAfter,
			EloChange: exchange.WinnerDelta,
			KFactor:   winnerK,
			Won:       true,
			PlayedAt:  g.PlayedAt,
		},
		Loser: HistoryEntry{
			GameID:    g.ID,
			PlayerID:  g.LoserID,
			EloBefore: exchange.LoserBefore,
			EloAfter:  exchange.LoserAfter,
			EloChange: exchange.LoserDelta,
			KFactor:   loserK,
			Won:       false,
			PlayedAt:  g.PlayedAt,
		},
	}, nil
}

// Replay seeds every listed player at startingElo and applies games in
// the order given. The caller is responsible for canonical ordering
// (played_at, then id). onGame, when non-nil, is invoked after each
// applied game with the 1-based count; returning an error aborts the
// replay.
func Replay(cfg Config, startingElo float64, playerIDs []string, games []GameRecord, onGame func(applied int) error) ([]GameOutcome, map[string]*PlayerState, error) {
	states := make(map[string]*PlayerState, len(playerIDs))
	for _, id := range playerIDs {
		states[id] = &PlayerState{Elo: startingElo}
	}

	outcomes := make([]GameOutcome, 0, len(games))
	for i, g := range games {
		outcome, err := ApplyGame(states, g, cfg)
		if err != nil {
			return nil, nil, err
		}
		outcomes = append(outcomes, outcome)

		if onGame != nil {
			if err := onGame(i + 1); err != nil {
				return nil, nil, err
			}
		}
	}

	return outcomes, states, nil
}
