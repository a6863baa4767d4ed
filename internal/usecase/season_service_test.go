package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/rating"
)

func TestSeasonService_CreateSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addPlayer("alice", "Alice", true)
	env.addPlayer("bob", "Bob", true)
	env.addPlayer("retired", "Retired", false)

	result, err := env.seasonSvc.CreateSeason(context.Background(), CreateSeasonInput{
		Name:        "Spring 2026",
		StartDate:   env.clock.Add(24 * time.Hour),
		StartingElo: 1000,
		KFactor:     32,
		Activate:    true,
		CreatedBy:   "admin",
	})
	if err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	if !result.Season.IsActive {
		t.Fatal("expected the new season to be active")
	}
	if result.Season.EloVersion != "season-default" {
		t.Fatalf("elo version = %q, want season-default", result.Season.EloVersion)
	}

	// Active players get seeded rows, inactive ones do not.
	rows, err := env.seasonSvc.SeasonPlayers(context.Background(), result.Season.ID)
	if err != nil {
		t.Fatalf("SeasonPlayers: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 seeded players, got %d", len(rows))
	}
	for _, ps := range rows {
		if ps.CurrentElo != 1000 || !ps.IsIncluded {
			t.Fatalf("seeded row = %+v", ps)
		}
	}
}

func TestSeasonService_CreateSeasonUniqueness(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	start := env.clock.Add(24 * time.Hour)
	env.addSeason("s1", "Spring 2026", start, true, rating.Config{KFactor: 32})

	_, err := env.seasonSvc.CreateSeason(context.Background(), CreateSeasonInput{
		Name:        "Spring 2026",
		StartDate:   env.clock.Add(48 * time.Hour),
		StartingElo: 1000,
		KFactor:     32,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate name err = %v, want ErrInvalidInput", err)
	}

	_, err = env.seasonSvc.CreateSeason(context.Background(), CreateSeasonInput{
		Name:        "Summer 2026",
		StartDate:   start,
		StartingElo: 1000,
		KFactor:     32,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate start date err = %v, want ErrInvalidInput", err)
	}
}

func TestSeasonService_CreateSeasonCapturesExistingGames(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	springStart := env.clock.Add(-60 * 24 * time.Hour)
	env.addSeason("s1", "Spring", springStart, true, rating.Config{KFactor: 32})
	for _, id := range []string{"A", "B"} {
		env.addPlayer(id, id, true)
		env.addPlayerSeason("s1", id, true)
	}
	env.addGame("m1", "g1", "s1", "A", "B", springStart.Add(24*time.Hour))
	env.addGame("m2", "g2", "s1", "B", "A", springStart.Add(40*24*time.Hour))

	// The new boundary splits spring in two: g2 falls on the new side.
	result, err := env.seasonSvc.CreateSeason(context.Background(), CreateSeasonInput{
		Name:        "Summer",
		StartDate:   springStart.Add(30 * 24 * time.Hour),
		StartingElo: 1000,
		KFactor:     32,
		CreatedBy:   "admin",
	})
	if err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	if result.MovedGames != 1 {
		t.Fatalf("moved games = %d, want 1", result.MovedGames)
	}
	if result.RecalcJob == nil {
		t.Fatal("expected a recalculation job")
	}

	stored, err := env.jobSvc.GetJob(context.Background(), result.RecalcJob.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != job.StatusCompleted || stored.Type != job.TypeRecalculateAll {
		t.Fatalf("job = %+v, want completed recalculate_all", stored)
	}

	// After the full replay each season holds exactly its own game.
	springA, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "A")
	if springA.GamesPlayed != 1 || springA.Wins != 1 {
		t.Fatalf("spring aggregates = %+v, want one win", springA)
	}
	summerA, exists, _ := env.seasons.GetPlayerSeason(context.Background(), result.Season.ID, "A")
	if !exists || summerA.GamesPlayed != 1 || summerA.Losses != 1 {
		t.Fatalf("summer aggregates = %+v, want one loss", summerA)
	}
}

func TestSeasonService_ActivateSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addSeason("s1", "Spring", env.clock.Add(-60*24*time.Hour), true, rating.Config{KFactor: 32})
	env.addSeason("s2", "Summer", env.clock.Add(-30*24*time.Hour), false, rating.Config{KFactor: 32})

	activated, err := env.seasonSvc.ActivateSeason(context.Background(), "s2")
	if err != nil {
		t.Fatalf("ActivateSeason: %v", err)
	}
	if !activated.IsActive {
		t.Fatal("expected s2 active")
	}
	if env.store.seasons["s1"].IsActive {
		t.Fatal("expected s1 deactivated in the same flip")
	}

	if _, err := env.seasonSvc.ActivateSeason(context.Background(), "s2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("re-activation err = %v, want ErrConflict", err)
	}
	if _, err := env.seasonSvc.ActivateSeason(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown season err = %v, want ErrNotFound", err)
	}
}

func TestSeasonService_DeleteSeasonGuards(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addSeason("s1", "Spring", env.clock.Add(-60*24*time.Hour), true, rating.Config{KFactor: 32})

	_, err := env.seasonSvc.DeleteSeason(context.Background(), DeleteSeasonInput{SeasonID: "s1"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("only-season err = %v, want ErrInvalidInput", err)
	}

	env.addSeason("s2", "Summer", env.clock.Add(-30*24*time.Hour), false, rating.Config{KFactor: 32})
	_, err = env.seasonSvc.DeleteSeason(context.Background(), DeleteSeasonInput{SeasonID: "s1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("active-season err = %v, want ErrConflict", err)
	}

	_, err = env.seasonSvc.DeleteSeason(context.Background(), DeleteSeasonInput{SeasonID: "s2", ReassignTo: "s2"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("self-reassign err = %v, want ErrInvalidInput", err)
	}
}

func TestSeasonService_DeleteSeasonReassignsGames(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	springStart := env.clock.Add(-60 * 24 * time.Hour)
	summerStart := env.clock.Add(-30 * 24 * time.Hour)
	env.addSeason("s1", "Spring", springStart, false, rating.Config{KFactor: 32})
	env.addSeason("s2", "Summer", summerStart, true, rating.Config{KFactor: 32})
	for _, id := range []string{"A", "B"} {
		env.addPlayer(id, id, true)
		env.addPlayerSeason("s1", id, true)
		env.addPlayerSeason("s2", id, true)
	}
	env.addGame("m1", "g1", "s1", "A", "B", springStart.Add(time.Hour))

	deleted, err := env.seasonSvc.DeleteSeason(context.Background(), DeleteSeasonInput{
		SeasonID:    "s1",
		ReassignTo:  "s2",
		RequestedBy: "admin",
	})
	if err != nil {
		t.Fatalf("DeleteSeason: %v", err)
	}

	if _, exists := env.store.seasons["s1"]; exists {
		t.Fatal("expected s1 gone")
	}

	stored, err := env.jobSvc.GetJob(context.Background(), deleted.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != job.StatusCompleted || stored.Type != job.TypeDeleteSeason || stored.SeasonID != "s2" {
		t.Fatalf("job = %+v, want completed delete_season on s2", stored)
	}

	// The moved game now rates inside summer.
	summerA, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s2", "A")
	if summerA.CurrentElo != 1016 || summerA.Wins != 1 {
		t.Fatalf("summer aggregates = %+v, want 1016 with one win", summerA)
	}
}

func TestSeasonService_SetInclusion(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addSeason("s1", "Spring", env.clock.Add(-30*24*time.Hour), true, rating.Config{KFactor: 32})
	for _, id := range []string{"A", "B", "C"} {
		env.addPlayer(id, id, true)
		env.addPlayerSeason("s1", id, true)
	}
	env.addGame("m1", "g1", "s1", "A", "B", env.clock.Add(-time.Hour))
	if _, err := env.recalcSvc.Recalculate(context.Background(), "s1", "admin"); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	jobsBefore := len(env.store.jobs)
	historyBefore := len(env.store.history)

	if err := env.seasonSvc.SetInclusion(context.Background(), "s1", "A", false); err != nil {
		t.Fatalf("SetInclusion: %v", err)
	}

	// Exclusion hides the player from the standings without touching
	// history or triggering a replay.
	entries, err := env.seasonSvc.Leaderboard(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	for _, entry := range entries {
		if entry.PlayerID == "A" {
			t.Fatal("excluded player still on the leaderboard")
		}
	}
	if len(env.store.history) != historyBefore {
		t.Fatal("history changed on an inclusion toggle")
	}
	if len(env.store.jobs) != jobsBefore {
		t.Fatal("inclusion toggle scheduled a job")
	}

	// Re-inclusion restores the row with its rating intact.
	if err := env.seasonSvc.SetInclusion(context.Background(), "s1", "A", true); err != nil {
		t.Fatalf("SetInclusion: %v", err)
	}
	entries, err = env.seasonSvc.Leaderboard(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 3 || entries[0].PlayerID != "A" || entries[0].CurrentElo != 1016 {
		t.Fatalf("leaderboard after re-inclusion = %+v", entries)
	}

	if err := env.seasonSvc.SetInclusion(context.Background(), "s1", "nobody", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown player err = %v, want ErrNotFound", err)
	}
}

func TestSeasonService_LeaderboardRanking(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addSeason("s1", "Spring", env.clock.Add(-30*24*time.Hour), true, rating.Config{KFactor: 32})
	for _, id := range []string{"A", "B", "C"} {
		env.addPlayer(id, "Player "+id, true)
		env.addPlayerSeason("s1", id, true)
	}
	base := env.clock.Add(-time.Hour)
	env.addGame("m1", "g1", "s1", "A", "B", base)
	env.addGame("m2", "g2", "s1", "A", "C", base.Add(5*time.Minute))
	if _, err := env.recalcSvc.Recalculate(context.Background(), "s1", "admin"); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	entries, err := env.seasonSvc.Leaderboard(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "A" || entries[0].Rank != 1 || entries[0].PlayerName != "Player A" {
		t.Fatalf("top entry = %+v", entries[0])
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CurrentElo > entries[i-1].CurrentElo {
			t.Fatalf("entries not sorted by rating: %+v", entries)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("rank %d at position %d", entries[i].Rank, i)
		}
	}
}

func TestSeasonService_UpdateEloVersion(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addSeason("s1", "Spring", env.clock.Add(-30*24*time.Hour), true, rating.Config{KFactor: 32})
	for _, id := range []string{"A", "B"} {
		env.addPlayer(id, id, true)
		env.addPlayerSeason("s1", id, true)
	}
	env.addGame("m1", "g1", "s1", "A", "B", env.clock.Add(-time.Hour))

	if _, err := env.configSvc.CreateConfig(context.Background(), CreateConfigInput{
		Version:     "v2-slow",
		StartingElo: 1000,
		KFactor:     16,
	}); err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}

	started, err := env.seasonSvc.UpdateEloVersion(context.Background(), "s1", "v2-slow", "admin")
	if err != nil {
		t.Fatalf("UpdateEloVersion: %v", err)
	}

	updated, _ := env.seasonSvc.GetSeason(context.Background(), "s1")
	if updated.EloVersion != "v2-slow" || updated.Rating.KFactor != 16 {
		t.Fatalf("season after update = %+v", updated)
	}

	stored, err := env.jobSvc.GetJob(context.Background(), started.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != job.StatusCompleted {
		t.Fatalf("job = %+v, want completed", stored)
	}

	// The replay reruns under the corrected parameters.
	a, _, _ := env.seasons.GetPlayerSeason(context.Background(), "s1", "A")
	if a.CurrentElo != 1008 {
		t.Fatalf("elo after replay = %v, want 1008 under K=16", a.CurrentElo)
	}

	if _, err := env.seasonSvc.UpdateEloVersion(context.Background(), "s1", "missing", "admin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown version err = %v, want ErrNotFound", err)
	}
}

func TestSeasonService_AvailablePlayers(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addSeason("s1", "Spring", env.clock.Add(-30*24*time.Hour), true, rating.Config{KFactor: 32})
	env.addPlayer("A", "Alice", true)
	env.addPlayer("B", "Bob", true)
	env.addPlayerSeason("s1", "A", true)

	players, err := env.seasonSvc.AvailablePlayers(context.Background(), "s1")
	if err != nil {
		t.Fatalf("AvailablePlayers: %v", err)
	}
	if len(players) != 1 || players[0].ID != "B" {
		t.Fatalf("available players = %+v, want only B", players)
	}

	// Enrolling the last candidate empties the pool.
	if err := env.seasonSvc.SetInclusion(context.Background(), "s1", "B", true); err != nil {
		t.Fatalf("SetInclusion: %v", err)
	}
	players, err = env.seasonSvc.AvailablePlayers(context.Background(), "s1")
	if err != nil {
		t.Fatalf("AvailablePlayers: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("available players = %+v, want none", players)
	}

	if _, err := env.seasonSvc.AvailablePlayers(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown season err = %v, want ErrNotFound", err)
	}
}
