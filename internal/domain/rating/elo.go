package rating

import "math"

// Exchange is the result of applying one game to a pair of ratings.
// Winner and loser deltas are kept separately because per-player
// K-factors make the exchange non-zero-sum on purpose: a player inside
// the new-player bonus window moves further than an established one.
type Exchange struct {
	WinnerBefore float64
	WinnerAfter  float64
	WinnerDelta  float64
	LoserBefore  float64
	LoserAfter   float64
	LoserDelta   float64
}

// Apply computes post-game ratings from the standard logistic expected
// score. The arithmetic is a fixed sequence of float64 operations so
// that replaying the same inputs always yields bit-identical outputs.
func Apply(winnerElo, loserElo, winnerK, loserK float64) Exchange {
	expectedWinner := 1.0 / (1.0 + math.Pow(10, (loserElo-winnerElo)/400.0))
	expectedLoser := 1.0 - expectedWinner

	winnerDelta := winnerK * (1.0 - expectedWinner)
	loserDelta := loserK * (0.0 - expectedLoser)

	return Exchange{
		WinnerBefore: winnerElo,
		WinnerAfter:  winnerElo + winnerDelta,
		WinnerDelta:  winnerDelta,
		LoserBefore:  loserElo,
		LoserAfter:   loserElo + loserDelta,
		LoserDelta:   loserDelta,
	}
}

// ExpectedScore returns the winner-side expected score for two ratings.
// Exposed for leaderboard previews; Apply inlines the same expression.
func ExpectedScore(playerElo, opponentElo float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponentElo-playerElo)/400.0))
}
