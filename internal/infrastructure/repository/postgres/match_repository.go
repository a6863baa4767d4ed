package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/avelier/club-ladder/internal/domain/match"
	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/id"
	qb "github.com/avelier/club-ladder/internal/platform/querybuilder"
)

type MatchRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewMatchRepository(db *sqlx.DB, idGen id.Generator) *MatchRepository {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &MatchRepository{db: db, idGen: idGen}
}

// ApplySubmission persists the match, applies the per-game rating
// exchange and writes history and aggregates in one transaction under
// the season's advisory lock.
func (r *MatchRepository) ApplySubmission(ctx context.Context, s season.Season, m match.Match) (match.Result, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.Result{}, fmt.Errorf("begin tx apply submission: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := acquireSeasonLock(ctx, tx, s.ID); err != nil {
		return match.Result{}, err
	}

	states, err := lockPlayerStates(ctx, tx, s.ID, []string{m.Player1ID, m.Player2ID})
	if err != nil {
		return match.Result{}, err
	}

	insertModel := matchInsertModel{
		ID:          m.ID,
		SeasonID:    m.SeasonID,
		Player1ID:   m.Player1ID,
		Player2ID:   m.Player2ID,
		SubmittedAt: m.SubmittedAt,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
	query, args, err := qb.InsertModel("matches", insertModel, "")
	if err != nil {
		return match.Result{}, fmt.Errorf("build insert match query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return match.Result{}, fmt.Errorf("insert match: %w", err)
	}

	result := match.Result{Match: m}
	for _, g := range m.Games {
		gameInsert := gameInsertModel{
			ID:         g.ID,
			MatchID:    g.MatchID,
			SeasonID:   g.SeasonID,
			WinnerID:   g.WinnerID,
			LoserID:    g.LoserID,
			PlayedAt:   g.PlayedAt,
			EloVersion: g.EloVersion,
		}
		gameQuery, gameArgs, err := qb.InsertModel("games", gameInsert, "")
		if err != nil {
			return match.Result{}, fmt.Errorf("build insert game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, gameQuery, gameArgs...); err != nil {
			return match.Result{}, fmt.Errorf("insert game: %w", err)
		}

		outcome, err := rating.ApplyGame(states, rating.GameRecord{
			ID:       g.ID,
			WinnerID: g.WinnerID,
			LoserID:  g.LoserID,
			PlayedAt: g.PlayedAt,
		}, s.Rating)
		if err != nil {
			return match.Result{}, err
		}
		result.Games = append(result.Games, match.GameResult{
			Game:   g,
			Winner: outcome.Winner,
			Loser:  outcome.Loser,
		})

		for _, side := range []rating.HistoryEntry{outcome.Winner, outcome.Loser} {
			if err := r.insertHistoryEntry(ctx, tx, s.ID, g.EloVersion, side); err != nil {
				return match.Result{}, err
			}
		}
	}

	for playerID, state := range states {
		if err := writePlayerState(ctx, tx, s.ID, playerID, state); err != nil {
			return match.Result{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return match.Result{}, fmt.Errorf("commit apply submission tx: %w", err)
	}
	return result, nil
}

func (r *MatchRepository) insertHistoryEntry(ctx context.Context, tx *sqlx.Tx, seasonID, eloVersion string, side rating.HistoryEntry) error {
	entryID, err := r.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate history id: %w", err)
	}
	insert := historyInsertModel{
		ID:         entryID,
		SeasonID:   seasonID,
		GameID:     side.GameID,
		PlayerID:   side.PlayerID,
		EloBefore:  side.EloBefore,
		EloAfter:   side.EloAfter,
		EloChange:  side.EloChange,
		KFactor:    side.KFactor,
		Won:        side.Won,
		EloVersion: eloVersion,
		PlayedAt:   side.PlayedAt,
	}
	query, args, err := qb.InsertModel("elo_history", insert, "")
	if err != nil {
		return fmt.Errorf("build insert history query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	item := row.toDomain()
	games, err := r.gamesByMatch(ctx, []string{item.ID})
	if err != nil {
		return match.Match{}, false, err
	}
	item.Games = games[item.ID]

	return item, true, nil
}

func (r *MatchRepository) List(ctx context.Context, seasonID string, limit, offset int) ([]match.Match, int, error) {
	conditions := []qb.Condition{}
	if seasonID != "" {
		conditions = append(conditions, qb.Eq("season_id", seasonID))
	}

	countBuilder := qb.Select("COUNT(*)").From("matches")
	listBuilder := qb.Select("*").From("matches")
	if len(conditions) > 0 {
		countBuilder = countBuilder.Where(conditions...)
		listBuilder = listBuilder.Where(conditions...)
	}

	countQuery, countArgs, err := countBuilder.ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count matches query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	query, args, err := listBuilder.
		OrderBy("submitted_at DESC", "id").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	if len(rows) == 0 {
		return nil, total, nil
	}

	matchIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		matchIDs = append(matchIDs, row.ID)
	}
	games, err := r.gamesByMatch(ctx, matchIDs)
	if err != nil {
		return nil, 0, err
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item := row.toDomain()
		item.Games = games[item.ID]
		out = append(out, item)
	}
	return out, total, nil
}

func (r *MatchRepository) gamesByMatch(ctx context.Context, matchIDs []string) (map[string][]match.Game, error) {
	ids := make([]any, 0, len(matchIDs))
	for _, matchID := range matchIDs {
		ids = append(ids, matchID)
	}
	query, args, err := qb.Select("*").From("games").
		Where(qb.In("match_id", ids)).
		OrderBy("played_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	out := make(map[string][]match.Game, len(matchIDs))
	for _, row := range rows {
		out[row.MatchID] = append(out[row.MatchID], row.toDomain())
	}
	return out, nil
}

// DeleteCascade removes the match, its games and their history rows.
// Player aggregates stay stale until the follow-up replay.
func (r *MatchRepository) DeleteCascade(ctx context.Context, matchID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx delete match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	historyQuery, historyArgs, err := qb.DeleteFrom("elo_history").
		Where(qb.Expr("game_id IN (SELECT id FROM games WHERE match_id = ?)", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete match history query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, historyQuery, historyArgs...); err != nil {
		return fmt.Errorf("delete match history: %w", err)
	}

	gamesQuery, gamesArgs, err := qb.DeleteFrom("games").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete games query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, gamesQuery, gamesArgs...); err != nil {
		return fmt.Errorf("delete games: %w", err)
	}

	matchQuery, matchArgs, err := qb.DeleteFrom("matches").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete match query: %w", err)
	}
	res, err := tx.ExecContext(ctx, matchQuery, matchArgs...)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("match %s not found", matchID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete match tx: %w", err)
	}
	return nil
}

func (r *MatchRepository) CountGamesBySeason(ctx context.Context, seasonID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("games").
		Where(qb.Eq("season_id", seasonID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count games query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return count, nil
}

// lockPlayerStates reads the players' season aggregates FOR UPDATE so
// concurrent submissions against the same pair serialize.
func lockPlayerStates(ctx context.Context, tx *sqlx.Tx, seasonID string, playerIDs []string) (map[string]*rating.PlayerState, error) {
	ids := make([]any, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		ids = append(ids, playerID)
	}
	query, args, err := qb.Select("*").From("player_seasons").
		Where(
			qb.Eq("season_id", seasonID),
			qb.In("player_id", ids),
		).
		ForUpdate().
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build lock player states query: %w", err)
	}

	var rows []playerSeasonTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("lock player states: %w", err)
	}

	states := make(map[string]*rating.PlayerState, len(rows))
	for _, row := range rows {
		states[row.PlayerID] = &rating.PlayerState{
			Elo:         row.CurrentElo,
			GamesPlayed: row.GamesPlayed,
			Wins:        row.Wins,
			Losses:      row.Losses,
		}
	}
	for _, playerID := range playerIDs {
		if _, ok := states[playerID]; !ok {
			return nil, fmt.Errorf("player %s has no season state", playerID)
		}
	}
	return states, nil
}

// writePlayerState flushes one player's aggregate and mirrors the
// rating onto the players table for the all-time view.
func writePlayerState(ctx context.Context, tx *sqlx.Tx, seasonID, playerID string, state *rating.PlayerState) error {
	query, args, err := buildPlayerSeasonUpdate(seasonID, playerID, state)
	if err != nil {
		return fmt.Errorf("build update player season query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update player season: %w", err)
	}

	playerQuery, playerArgs, err := buildPlayerRatingMirror(playerID, state.Elo)
	if err != nil {
		return fmt.Errorf("build update player rating query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, playerQuery, playerArgs...); err != nil {
		return fmt.Errorf("update player rating: %w", err)
	}
	return nil
}

func buildPlayerSeasonUpdate(seasonID, playerID string, state *rating.PlayerState) (string, []any, error) {
	return qb.Update("player_seasons").
		Set("current_elo", state.Elo).
		Set("games_played", state.GamesPlayed).
		Set("wins", state.Wins).
		Set("losses", state.Losses).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("season_id", seasonID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
}

func buildPlayerRatingMirror(playerID string, elo float64) (string, []any, error) {
	return qb.Update("players").
		Set("current_elo", elo).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", playerID)).
		ToSQL()
}
