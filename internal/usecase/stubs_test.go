package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avelier/club-ladder/internal/domain/eloconfig"
	"github.com/avelier/club-ladder/internal/domain/history"
	"github.com/avelier/club-ladder/internal/domain/job"
	"github.com/avelier/club-ladder/internal/domain/match"
	"github.com/avelier/club-ladder/internal/domain/player"
	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/cache"
	"github.com/avelier/club-ladder/internal/platform/logging"
)

// memStore is a shared in-memory backing for the stub repositories. It
// applies the same rating engine as the real persistence layer so
// service tests exercise genuine replay semantics.
type memStore struct {
	mu            sync.Mutex
	players       map[string]player.Player
	seasons       map[string]season.Season
	playerSeasons map[string]season.PlayerSeason
	matches       map[string]match.Match
	history       []history.Entry
	jobs          map[string]job.Job
	configs       map[string]eloconfig.Config

	seasonLocked map[string]bool
	historySeq   int
}

func newMemStore() *memStore {
	return &memStore{
		players:       make(map[string]player.Player),
		seasons:       make(map[string]season.Season),
		playerSeasons: make(map[string]season.PlayerSeason),
		matches:       make(map[string]match.Match),
		jobs:          make(map[string]job.Job),
		configs:       make(map[string]eloconfig.Config),
		seasonLocked:  make(map[string]bool),
	}
}

func psKey(seasonID, playerID string) string { return seasonID + "|" + playerID }

func (m *memStore) seasonGamesLocked(seasonID string) []match.Game {
	var games []match.Game
	for _, item := range m.matches {
		for _, g := range item.Games {
			if g.SeasonID == seasonID {
				games = append(games, g)
			}
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].PlayedAt.Equal(games[j].PlayedAt) {
			return games[i].PlayedAt.Before(games[j].PlayedAt)
		}
		return games[i].ID < games[j].ID
	})
	return games
}

type stubPlayerRepository struct{ store *memStore }

func (s *stubPlayerRepository) Create(_ context.Context, p player.Player) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.players[p.ID] = p
	return nil
}

func (s *stubPlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.players[playerID]
	return item, ok, nil
}

func (s *stubPlayerRepository) GetByName(_ context.Context, name string) (player.Player, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, item := range s.store.players {
		if item.Name == name {
			return item, true, nil
		}
	}
	return player.Player{}, false, nil
}

func (s *stubPlayerRepository) List(_ context.Context) ([]player.Player, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]player.Player, 0, len(s.store.players))
	for _, item := range s.store.players {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubPlayerRepository) ListActive(ctx context.Context) ([]player.Player, error) {
	all, _ := s.List(ctx)
	out := all[:0]
	for _, item := range all {
		if item.IsActive {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubPlayerRepository) ListAvailableForSeason(ctx context.Context, seasonID string) ([]player.Player, error) {
	all, _ := s.List(ctx)
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := all[:0]
	for _, item := range all {
		if _, ok := s.store.playerSeasons[psKey(seasonID, item.ID)]; !ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubPlayerRepository) Update(_ context.Context, p player.Player) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.players[p.ID] = p
	return nil
}

type stubSeasonRepository struct{ store *memStore }

func (s *stubSeasonRepository) Create(_ context.Context, item season.Season) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.seasons[item.ID] = item
	return nil
}

func (s *stubSeasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.seasons[seasonID]
	return item, ok, nil
}

func (s *stubSeasonRepository) GetByName(_ context.Context, name string) (season.Season, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, item := range s.store.seasons {
		if item.Name == name {
			return item, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (s *stubSeasonRepository) GetByStartDate(_ context.Context, startDate int64) (season.Season, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, item := range s.store.seasons {
		if item.StartDate.Unix() == startDate {
			return item, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (s *stubSeasonRepository) GetActive(_ context.Context) (season.Season, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, item := range s.store.seasons {
		if item.IsActive {
			return item, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (s *stubSeasonRepository) List(_ context.Context) ([]season.Season, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]season.Season, 0, len(s.store.seasons))
	for _, item := range s.store.seasons {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *stubSeasonRepository) Update(_ context.Context, item season.Season) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.seasons[item.ID] = item
	return nil
}

func (s *stubSeasonRepository) Count(_ context.Context) (int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return len(s.store.seasons), nil
}

func (s *stubSeasonRepository) Activate(_ context.Context, seasonID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for id, item := range s.store.seasons {
		item.IsActive = id == seasonID
		s.store.seasons[id] = item
	}
	return nil
}

func (s *stubSeasonRepository) DeleteCascade(_ context.Context, seasonID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.seasons, seasonID)
	for id, item := range s.store.matches {
		if item.SeasonID == seasonID {
			delete(s.store.matches, id)
		}
	}
	kept := s.store.history[:0]
	for _, entry := range s.store.history {
		if entry.SeasonID != seasonID {
			kept = append(kept, entry)
		}
	}
	s.store.history = kept
	for key, ps := range s.store.playerSeasons {
		if ps.SeasonID == seasonID {
			delete(s.store.playerSeasons, key)
		}
	}
	return nil
}

func (s *stubSeasonRepository) ReassignGames(_ context.Context, fromSeasonID, toSeasonID string, playedFrom *time.Time) (int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	moved := 0
	for id, item := range s.store.matches {
		if item.SeasonID != fromSeasonID {
			continue
		}
		for i, g := range item.Games {
			if playedFrom != nil && g.PlayedAt.Before(*playedFrom) {
				continue
			}
			item.Games[i].SeasonID = toSeasonID
			moved++
		}
		allMoved := true
		for _, g := range item.Games {
			if g.SeasonID == fromSeasonID {
				allMoved = false
				break
			}
		}
		if allMoved {
			item.SeasonID = toSeasonID
		}
		s.store.matches[id] = item
	}
	return moved, nil
}

func (s *stubSeasonRepository) GetPlayerSeason(_ context.Context, seasonID, playerID string) (season.PlayerSeason, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.playerSeasons[psKey(seasonID, playerID)]
	return item, ok, nil
}

func (s *stubSeasonRepository) ListPlayerSeasons(_ context.Context, seasonID string) ([]season.PlayerSeason, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []season.PlayerSeason
	for _, item := range s.store.playerSeasons {
		if item.SeasonID == seasonID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (s *stubSeasonRepository) UpsertPlayerSeason(_ context.Context, ps season.PlayerSeason) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.playerSeasons[psKey(ps.SeasonID, ps.PlayerID)] = ps
	return nil
}

func (s *stubSeasonRepository) SetInclusion(_ context.Context, seasonID, playerID string, included bool) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	key := psKey(seasonID, playerID)
	item, ok := s.store.playerSeasons[key]
	if !ok {
		return fmt.Errorf("player season %s not found", key)
	}
	item.IsIncluded = included
	s.store.playerSeasons[key] = item
	return nil
}

func (s *stubSeasonRepository) EnsurePlayers(_ context.Context, seasonID string, playerIDs []string, startingElo float64) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, playerID := range playerIDs {
		key := psKey(seasonID, playerID)
		if _, ok := s.store.playerSeasons[key]; ok {
			continue
		}
		s.store.playerSeasons[key] = season.PlayerSeason{
			PlayerID:   playerID,
			SeasonID:   seasonID,
			CurrentElo: startingElo,
			IsIncluded: true,
		}
	}
	return nil
}

func (s *stubSeasonRepository) Leaderboard(_ context.Context, seasonID string) ([]season.LeaderboardEntry, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []season.LeaderboardEntry
	for _, ps := range s.store.playerSeasons {
		if ps.SeasonID != seasonID || !ps.IsIncluded {
			continue
		}
		name := ps.PlayerID
		if p, ok := s.store.players[ps.PlayerID]; ok {
			name = p.Name
		}
		out = append(out, season.LeaderboardEntry{
			PlayerID:    ps.PlayerID,
			PlayerName:  name,
			CurrentElo:  ps.CurrentElo,
			GamesPlayed: ps.GamesPlayed,
			Wins:        ps.Wins,
			Losses:      ps.Losses,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentElo != out[j].CurrentElo {
			return out[i].CurrentElo > out[j].CurrentElo
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

type stubMatchRepository struct{ store *memStore }

func (s *stubMatchRepository) ApplySubmission(_ context.Context, sn season.Season, m match.Match) (match.Result, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.store.seasonLocked[sn.ID] {
		return match.Result{}, season.ErrLocked
	}

	states := map[string]*rating.PlayerState{}
	for _, playerID := range []string{m.Player1ID, m.Player2ID} {
		ps, ok := s.store.playerSeasons[psKey(sn.ID, playerID)]
		if !ok {
			return match.Result{}, fmt.Errorf("player %s has no season state", playerID)
		}
		states[playerID] = &rating.PlayerState{
			Elo:         ps.CurrentElo,
			GamesPlayed: ps.GamesPlayed,
			Wins:        ps.Wins,
			Losses:      ps.Losses,
		}
	}

	result := match.Result{Match: m}
	for _, g := range m.Games {
		outcome, err := rating.ApplyGame(states, rating.GameRecord{
			ID:       g.ID,
			WinnerID: g.WinnerID,
			LoserID:  g.LoserID,
			PlayedAt: g.PlayedAt,
		}, sn.Rating)
		if err != nil {
			return match.Result{}, err
		}
		result.Games = append(result.Games, match.GameResult{
			Game:   g,
			Winner: outcome.Winner,
			Loser:  outcome.Loser,
		})
		for _, entry := range []rating.HistoryEntry{outcome.Winner, outcome.Loser} {
			s.store.historySeq++
			s.store.history = append(s.store.history, history.Entry{
				ID:         fmt.Sprintf("h-%d", s.store.historySeq),
				SeasonID:   sn.ID,
				GameID:     entry.GameID,
				PlayerID:   entry.PlayerID,
				EloBefore:  entry.EloBefore,
				EloAfter:   entry.EloAfter,
				EloChange:  entry.EloChange,
				KFactor:    entry.KFactor,
				Won:        entry.Won,
				EloVersion: g.EloVersion,
				PlayedAt:   entry.PlayedAt,
			})
		}
	}

	s.store.matches[m.ID] = m
	for playerID, state := range states {
		key := psKey(sn.ID, playerID)
		ps := s.store.playerSeasons[key]
		ps.CurrentElo = state.Elo
		ps.GamesPlayed = state.GamesPlayed
		ps.Wins = state.Wins
		ps.Losses = state.Losses
		s.store.playerSeasons[key] = ps

		if p, ok := s.store.players[playerID]; ok {
			p.CurrentElo = state.Elo
			s.store.players[playerID] = p
		}
	}

	return result, nil
}

func (s *stubMatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.matches[matchID]
	return item, ok, nil
}

func (s *stubMatchRepository) List(_ context.Context, seasonID string, limit, offset int) ([]match.Match, int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []match.Match
	for _, item := range s.store.matches {
		if seasonID != "" && item.SeasonID != seasonID {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *stubMatchRepository) DeleteCascade(_ context.Context, matchID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.matches[matchID]
	if !ok {
		return fmt.Errorf("match %s not found", matchID)
	}
	gameIDs := map[string]bool{}
	for _, g := range item.Games {
		gameIDs[g.ID] = true
	}
	kept := s.store.history[:0]
	for _, entry := range s.store.history {
		if !gameIDs[entry.GameID] {
			kept = append(kept, entry)
		}
	}
	s.store.history = kept
	delete(s.store.matches, matchID)
	return nil
}

func (s *stubMatchRepository) CountGamesBySeason(_ context.Context, seasonID string) (int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return len(s.store.seasonGamesLocked(seasonID)), nil
}

type stubHistoryRepository struct{ store *memStore }

func (s *stubHistoryRepository) ListBySeason(_ context.Context, seasonID string) ([]history.Entry, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []history.Entry
	for _, entry := range s.store.history {
		if entry.SeasonID == seasonID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *stubHistoryRepository) ListByPlayerSeason(_ context.Context, seasonID, playerID string) ([]history.Entry, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []history.Entry
	for _, entry := range s.store.history {
		if entry.SeasonID == seasonID && entry.PlayerID == playerID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *stubHistoryRepository) ReplaySeason(_ context.Context, sn season.Season, progress func(processed, total int)) (history.ReplayStats, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.store.seasonLocked[sn.ID] {
		return history.ReplayStats{}, season.ErrLocked
	}

	games := s.store.seasonGamesLocked(sn.ID)
	versionByGame := make(map[string]string, len(games))
	records := make([]rating.GameRecord, 0, len(games))
	for _, g := range games {
		versionByGame[g.ID] = g.EloVersion
		records = append(records, rating.GameRecord{
			ID:       g.ID,
			WinnerID: g.WinnerID,
			LoserID:  g.LoserID,
			PlayedAt: g.PlayedAt,
		})
	}

	var playerIDs []string
	for _, ps := range s.store.playerSeasons {
		if ps.SeasonID == sn.ID {
			playerIDs = append(playerIDs, ps.PlayerID)
		}
	}
	sort.Strings(playerIDs)

	outcomes, states, err := rating.Replay(sn.Rating, sn.StartingElo, playerIDs, records, func(applied int) error {
		if progress != nil {
			// The progress callback re-enters other stub repositories
			// (job updates), which take store.mu themselves.
			s.store.mu.Unlock()
			progress(applied, len(records))
			s.store.mu.Lock()
		}
		return nil
	})
	if err != nil {
		return history.ReplayStats{}, err
	}

	kept := s.store.history[:0]
	for _, entry := range s.store.history {
		if entry.SeasonID != sn.ID {
			kept = append(kept, entry)
		}
	}
	s.store.history = kept

	entries := 0
	s.store.historySeq = 0
	for _, outcome := range outcomes {
		for _, side := range []rating.HistoryEntry{outcome.Winner, outcome.Loser} {
			s.store.historySeq++
			s.store.history = append(s.store.history, history.Entry{
				ID:         fmt.Sprintf("h-%d", s.store.historySeq),
				SeasonID:   sn.ID,
				GameID:     side.GameID,
				PlayerID:   side.PlayerID,
				EloBefore:  side.EloBefore,
				EloAfter:   side.EloAfter,
				EloChange:  side.EloChange,
				KFactor:    side.KFactor,
				Won:        side.Won,
				EloVersion: versionByGame[side.GameID],
				PlayedAt:   side.PlayedAt,
			})
			entries++
		}
	}

	for playerID, state := range states {
		key := psKey(sn.ID, playerID)
		ps := s.store.playerSeasons[key]
		ps.PlayerID = playerID
		ps.SeasonID = sn.ID
		ps.CurrentElo = state.Elo
		ps.GamesPlayed = state.GamesPlayed
		ps.Wins = state.Wins
		ps.Losses = state.Losses
		if _, existed := s.store.playerSeasons[key]; !existed {
			ps.IsIncluded = true
		}
		s.store.playerSeasons[key] = ps

		if p, ok := s.store.players[playerID]; ok {
			p.CurrentElo = state.Elo
			s.store.players[playerID] = p
		}
	}

	return history.ReplayStats{
		GamesReplayed:  len(records),
		PlayersSeeded:  len(playerIDs),
		EntriesWritten: entries,
	}, nil
}

type stubJobRepository struct{ store *memStore }

func (s *stubJobRepository) Create(_ context.Context, j job.Job) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.jobs[j.ID] = j
	return nil
}

func (s *stubJobRepository) GetByID(_ context.Context, jobID string) (job.Job, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.jobs[jobID]
	return item, ok, nil
}

func (s *stubJobRepository) Update(_ context.Context, j job.Job) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.jobs[j.ID] = j
	return nil
}

func (s *stubJobRepository) List(_ context.Context, limit int) ([]job.Job, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]job.Job, 0, len(s.store.jobs))
	for _, item := range s.store.jobs {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type stubConfigRepository struct{ store *memStore }

func (s *stubConfigRepository) Create(_ context.Context, c eloconfig.Config) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.configs[c.ID] = c
	return nil
}

func (s *stubConfigRepository) GetByID(_ context.Context, configID string) (eloconfig.Config, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	item, ok := s.store.configs[configID]
	return item, ok, nil
}

func (s *stubConfigRepository) GetByVersion(_ context.Context, version string) (eloconfig.Config, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, item := range s.store.configs {
		if item.Version == version {
			return item, true, nil
		}
	}
	return eloconfig.Config{}, false, nil
}

func (s *stubConfigRepository) GetActive(_ context.Context) (eloconfig.Config, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, item := range s.store.configs {
		if item.IsActive {
			return item, true, nil
		}
	}
	return eloconfig.Config{}, false, nil
}

func (s *stubConfigRepository) List(_ context.Context) ([]eloconfig.Config, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]eloconfig.Config, 0, len(s.store.configs))
	for _, item := range s.store.configs {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *stubConfigRepository) Activate(_ context.Context, configID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for id, item := range s.store.configs {
		item.IsActive = id == configID
		s.store.configs[id] = item
	}
	return nil
}

// syncRunner executes submitted tasks inline, keeping job lifecycles
// deterministic in tests.
type syncRunner struct{}

func (syncRunner) Submit(_ string, fn func(ctx context.Context)) error {
	fn(context.Background())
	return nil
}

// seqIDGen hands out predictable ids.
type seqIDGen struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDGen) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n), nil
}

// testEnv wires every service against one shared in-memory store with a
// synchronous runner and a fixed clock.
type testEnv struct {
	store   *memStore
	clock   time.Time
	players *stubPlayerRepository
	seasons *stubSeasonRepository

	playerSvc *PlayerService
	configSvc *ConfigService
	recalcSvc *RecalcService
	matchSvc  *MatchService
	seasonSvc *SeasonService
	jobSvc    *JobService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	players := &stubPlayerRepository{store: store}
	seasons := &stubSeasonRepository{store: store}
	matches := &stubMatchRepository{store: store}
	histories := &stubHistoryRepository{store: store}
	jobs := &stubJobRepository{store: store}
	configs := &stubConfigRepository{store: store}
	idGen := &seqIDGen{prefix: "id"}
	logger := logging.NewNop()
	clock := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	env := &testEnv{store: store, clock: clock, players: players, seasons: seasons}
	env.playerSvc = NewPlayerService(players, idGen)
	env.playerSvc.now = now
	env.configSvc = NewConfigService(configs, idGen)
	env.configSvc.now = now
	env.recalcSvc = NewRecalcService(seasons, histories, matches, jobs, syncRunner{}, logger, idGen)
	env.recalcSvc.now = now
	env.matchSvc = NewMatchService(players, seasons, matches, env.configSvc, env.recalcSvc, idGen)
	env.matchSvc.now = now
	env.seasonSvc = NewSeasonService(seasons, players, env.configSvc, env.recalcSvc, cache.NewStore(time.Minute), nil, logger, idGen)
	env.seasonSvc.now = now
	env.jobSvc = NewJobService(jobs)

	return env
}

func (e *testEnv) addPlayer(id, name string, active bool) {
	e.store.players[id] = player.Player{
		ID: id, Name: name, CurrentElo: 1000, IsActive: active,
		CreatedAt: e.clock, UpdatedAt: e.clock,
	}
}

func (e *testEnv) addSeason(id, name string, start time.Time, active bool, cfg rating.Config) {
	e.store.seasons[id] = season.Season{
		ID: id, Name: name, StartDate: start, IsActive: active,
		StartingElo: 1000, Rating: cfg, EloVersion: "season-default",
		CreatedAt: e.clock, UpdatedAt: e.clock,
	}
}

func (e *testEnv) addPlayerSeason(seasonID, playerID string, included bool) {
	e.store.playerSeasons[psKey(seasonID, playerID)] = season.PlayerSeason{
		PlayerID: playerID, SeasonID: seasonID, CurrentElo: 1000, IsIncluded: included,
	}
}

func (e *testEnv) addGame(matchID, gameID, seasonID, winnerID, loserID string, playedAt time.Time) {
	m, ok := e.store.matches[matchID]
	if !ok {
		m = match.Match{
			ID: matchID, SeasonID: seasonID,
			Player1ID: winnerID, Player2ID: loserID,
			SubmittedAt: playedAt, CreatedAt: playedAt,
		}
	}
	m.Games = append(m.Games, match.Game{
		ID: gameID, MatchID: matchID, SeasonID: seasonID,
		WinnerID: winnerID, LoserID: loserID,
		PlayedAt: playedAt, EloVersion: "season-default",
	})
	e.store.matches[matchID] = m
}
