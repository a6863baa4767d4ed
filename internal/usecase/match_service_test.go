package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/rating"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func (e *testEnv) activeSeasonWithPair(t *testing.T, cfg rating.Config) {
	t.Helper()
	e.addSeason("s1", "Spring", e.clock.Add(-30*24*time.Hour), true, cfg)
	e.addPlayer("alice", "Alice", true)
	e.addPlayer("bob", "Bob", true)
	e.addPlayerSeason("s1", "alice", true)
	e.addPlayerSeason("s1", "bob", true)
}

func TestMatchService_SubmitMatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{KFactor: 32})

	submittedAt := env.clock
	result, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID:   "alice",
		Player2ID:   "bob",
		Games:       []string{GameWinnerPlayer1, GameWinnerPlayer2, GameWinnerPlayer1},
		SubmittedAt: &submittedAt,
		CreatedBy:   "admin",
	})
	if err != nil {
		t.Fatalf("SubmitMatch: %v", err)
	}
	if len(result.Games) != 3 {
		t.Fatalf("expected 3 game results, got %d", len(result.Games))
	}

	// Games step back from submitted_at in 5-minute intervals so the
	// intra-match order survives a replay sort.
	for i, g := range result.Games {
		want := submittedAt.Add(-time.Duration(2-i) * 5 * time.Minute)
		if !g.Game.PlayedAt.Equal(want) {
			t.Fatalf("game %d played_at = %s, want %s", i, g.Game.PlayedAt, want)
		}
	}
	if result.Games[0].Game.WinnerID != "alice" || result.Games[1].Game.WinnerID != "bob" || result.Games[2].Game.WinnerID != "alice" {
		t.Fatalf("winner normalization wrong: %+v", result.Games)
	}

	// Equal K keeps the exchange zero-sum across the match.
	alice, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "alice")
	bob, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "bob")
	if !almost(alice.CurrentElo, 1014.6658) || !almost(bob.CurrentElo, 985.3342) {
		t.Fatalf("ratings = %.4f / %.4f, want 1014.6658 / 985.3342", alice.CurrentElo, bob.CurrentElo)
	}
	if alice.GamesPlayed != 3 || alice.Wins != 2 || alice.Losses != 1 {
		t.Fatalf("alice aggregates = %+v", alice)
	}
	if bob.GamesPlayed != 3 || bob.Wins != 1 || bob.Losses != 2 {
		t.Fatalf("bob aggregates = %+v", bob)
	}

	// Two history rows per game.
	entries := env.store.history
	if len(entries) != 6 {
		t.Fatalf("expected 6 history entries, got %d", len(entries))
	}
}

func TestMatchService_SubmitMatchPerGameKFactor(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{
		BaseKFactor:          floatPtr(20),
		NewPlayerKBonus:      floatPtr(48),
		NewPlayerBonusPeriod: intPtr(10),
	})

	submittedAt := env.clock
	result, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID:   "alice",
		Player2ID:   "bob",
		Games:       []string{GameWinnerPlayer1, GameWinnerPlayer1},
		SubmittedAt: &submittedAt,
	})
	if err != nil {
		t.Fatalf("SubmitMatch: %v", err)
	}

	// Experience accumulates within the match, so the second game is
	// rated at one game played for both sides.
	if k := result.Games[0].Winner.KFactor; k != 68 {
		t.Fatalf("game 1 K = %v, want 68", k)
	}
	if k := result.Games[1].Winner.KFactor; !almost(k, 63.2) {
		t.Fatalf("game 2 K = %v, want 63.2", k)
	}

	alice, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "alice")
	if !almost(alice.CurrentElo, 1059.4930) {
		t.Fatalf("alice elo = %.4f, want 1059.4930", alice.CurrentElo)
	}
}

func TestMatchService_SubmitMatchValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prepare func(env *testEnv)
		input   SubmitMatchInput
		wantErr error
	}{
		{
			name:    "same player twice",
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "alice", Games: []string{GameWinnerPlayer1}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "no games",
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "bob"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown winner token",
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "bob", Games: []string{"draw"}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown player",
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "nobody", Games: []string{GameWinnerPlayer1}},
			wantErr: ErrNotFound,
		},
		{
			name: "inactive player",
			prepare: func(env *testEnv) {
				env.addPlayer("retired", "Retired", false)
			},
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "retired", Games: []string{GameWinnerPlayer1}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "excluded player",
			prepare: func(env *testEnv) {
				env.addPlayer("ghost", "Ghost", true)
				env.addPlayerSeason("s1", "ghost", false)
			},
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "ghost", Games: []string{GameWinnerPlayer1}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "no active season",
			prepare: func(env *testEnv) {
				s := env.store.seasons["s1"]
				s.IsActive = false
				env.store.seasons["s1"] = s
			},
			input:   SubmitMatchInput{Player1ID: "alice", Player2ID: "bob", Games: []string{GameWinnerPlayer1}},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv()
			env.activeSeasonWithPair(t, rating.Config{KFactor: 32})
			if tc.prepare != nil {
				tc.prepare(env)
			}

			_, err := env.matchSvc.SubmitMatch(context.Background(), tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMatchService_SubmitMatchEnrollsNewPlayer(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{KFactor: 32})
	env.addPlayer("carol", "Carol", true)

	_, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID: "alice",
		Player2ID: "carol",
		Games:     []string{GameWinnerPlayer2},
	})
	if err != nil {
		t.Fatalf("SubmitMatch: %v", err)
	}

	carol, exists, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "carol")
	if !exists {
		t.Fatal("expected carol to be enrolled in the season")
	}
	if carol.CurrentElo != 1016 || carol.Wins != 1 {
		t.Fatalf("carol = %+v, want elo 1016 with 1 win", carol)
	}
}

func TestMatchService_SubmitMatchSeasonBusy(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{KFactor: 32})
	env.store.seasonLocked["s1"] = true

	_, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID: "alice",
		Player2ID: "bob",
		Games:     []string{GameWinnerPlayer1},
	})
	if !errors.Is(err, ErrSeasonBusy) {
		t.Fatalf("err = %v, want ErrSeasonBusy", err)
	}
}

func TestMatchService_SubmitMatchTagsActiveConfigVersion(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{KFactor: 32})

	created, err := env.configSvc.CreateConfig(context.Background(), CreateConfigInput{
		Version:     "v2-fast",
		StartingElo: 1000,
		KFactor:     64,
	})
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}
	if _, err := env.configSvc.ActivateConfig(context.Background(), created.ID); err != nil {
		t.Fatalf("ActivateConfig: %v", err)
	}

	result, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID: "alice",
		Player2ID: "bob",
		Games:     []string{GameWinnerPlayer1},
	})
	if err != nil {
		t.Fatalf("SubmitMatch: %v", err)
	}

	// The active version is an audit tag only. The exchange still runs
	// on the season's own parameters, so the delta reflects K=32.
	if got := result.Games[0].Game.EloVersion; got != "v2-fast" {
		t.Fatalf("game elo version = %q, want v2-fast", got)
	}
	if delta := result.Games[0].Winner.EloChange; delta != 16 {
		t.Fatalf("winner delta = %v, want 16 under the season's K", delta)
	}
}

func TestMatchService_ListMatches(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{KFactor: 32})

	for i := 0; i < 3; i++ {
		submittedAt := env.clock.Add(time.Duration(i) * time.Hour)
		if _, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
			Player1ID:   "alice",
			Player2ID:   "bob",
			Games:       []string{GameWinnerPlayer1},
			SubmittedAt: &submittedAt,
		}); err != nil {
			t.Fatalf("SubmitMatch %d: %v", i, err)
		}
	}

	items, total, err := env.matchSvc.ListMatches(context.Background(), "s1", 2, 0)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("total = %d, page = %d, want 3 and 2", total, len(items))
	}
	if items[0].SubmittedAt.Before(items[1].SubmittedAt) {
		t.Fatal("expected newest-first ordering")
	}

	if _, _, err := env.matchSvc.ListMatches(context.Background(), "missing", 10, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for unknown season", err)
	}
}

func TestMatchService_DeleteMatchRebuildsSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.activeSeasonWithPair(t, rating.Config{KFactor: 32})

	first, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID: "alice",
		Player2ID: "bob",
		Games:     []string{GameWinnerPlayer1},
	})
	if err != nil {
		t.Fatalf("SubmitMatch: %v", err)
	}
	later := env.clock.Add(time.Hour)
	if _, err := env.matchSvc.SubmitMatch(context.Background(), SubmitMatchInput{
		Player1ID:   "alice",
		Player2ID:   "bob",
		Games:       []string{GameWinnerPlayer2},
		SubmittedAt: &later,
	}); err != nil {
		t.Fatalf("SubmitMatch: %v", err)
	}

	recalcJob, err := env.matchSvc.DeleteMatch(context.Background(), first.Match.ID, "admin")
	if err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}

	// The synchronous runner finishes the replay before returning, so
	// the stored job is already terminal.
	stored, err := env.jobSvc.GetJob(context.Background(), recalcJob.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != job.StatusCompleted || stored.Type != job.TypeDeleteMatch {
		t.Fatalf("job = %+v, want completed delete_match", stored)
	}

	if _, exists := env.store.matches[first.Match.ID]; exists {
		t.Fatal("expected the match to be gone")
	}

	// Only the surviving game counts: bob beat alice once from scratch.
	alice, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "alice")
	bob, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "bob")
	if alice.CurrentElo != 984 || bob.CurrentElo != 1016 {
		t.Fatalf("ratings after rebuild = %v / %v, want 984 / 1016", alice.CurrentElo, bob.CurrentElo)
	}
	if alice.GamesPlayed != 1 || bob.Wins != 1 {
		t.Fatalf("aggregates after rebuild: alice %+v, bob %+v", alice, bob)
	}

	// The all-time rating on the players table follows the rebuild, not
	// the deleted game.
	alicePlayer, _, _ := env.players.GetByID(context.Background(), "alice")
	bobPlayer, _, _ := env.players.GetByID(context.Background(), "bob")
	if alicePlayer.CurrentElo != 984 || bobPlayer.CurrentElo != 1016 {
		t.Fatalf("player ratings after rebuild = %v / %v, want 984 / 1016", alicePlayer.CurrentElo, bobPlayer.CurrentElo)
	}
}
