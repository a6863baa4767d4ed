package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/avelier/club-ladder/internal/domain/season"
	qb "github.com/avelier/club-ladder/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) Create(ctx context.Context, s season.Season) error {
	insertModel := seasonInsertModel{
		ID:                   s.ID,
		Name:                 s.Name,
		StartDate:            s.StartDate,
		IsActive:             s.IsActive,
		StartingElo:          s.StartingElo,
		KFactor:              s.Rating.KFactor,
		BaseKFactor:          nullFloat(s.Rating.BaseKFactor),
		NewPlayerKBonus:      nullFloat(s.Rating.NewPlayerKBonus),
		NewPlayerBonusPeriod: nullInt(s.Rating.NewPlayerBonusPeriod),
		DecayCurve:           string(s.Rating.DecayCurve),
		EloVersion:           s.EloVersion,
		CreatedBy:            s.CreatedBy,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	query, args, err := qb.InsertModel("seasons", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("season %q conflicts with an existing season: %w", s.Name, err)
		}
		return fmt.Errorf("insert season: %w", err)
	}
	return nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	return r.getOne(ctx, qb.Eq("id", seasonID))
}

func (r *SeasonRepository) GetByName(ctx context.Context, name string) (season.Season, bool, error) {
	return r.getOne(ctx, qb.Expr("LOWER(name) = LOWER(?)", name))
}

func (r *SeasonRepository) GetByStartDate(ctx context.Context, startDate int64) (season.Season, bool, error) {
	return r.getOne(ctx, qb.Eq("start_date", time.Unix(startDate, 0).UTC()))
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	return r.getOne(ctx, qb.Eq("is_active", true))
}

func (r *SeasonRepository) getOne(ctx context.Context, cond qb.Condition) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(cond).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").
		OrderBy("start_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SeasonRepository) Update(ctx context.Context, s season.Season) error {
	query, args, err := qb.Update("seasons").
		Set("name", s.Name).
		Set("start_date", s.StartDate).
		Set("starting_elo", s.StartingElo).
		Set("k_factor", s.Rating.KFactor).
		Set("base_k_factor", nullFloat(s.Rating.BaseKFactor)).
		Set("new_player_k_bonus", nullFloat(s.Rating.NewPlayerKBonus)).
		Set("new_player_bonus_period", nullInt(s.Rating.NewPlayerBonusPeriod)).
		Set("decay_curve", string(s.Rating.DecayCurve)).
		Set("elo_version", s.EloVersion).
		Set("updated_at", s.UpdatedAt).
		Where(qb.Eq("id", s.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update season: %w", err)
	}
	return nil
}

func (r *SeasonRepository) Count(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("seasons").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count seasons query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count seasons: %w", err)
	}
	return count, nil
}

// Activate flips the single active flag in one transaction so there is
// never a window with zero or two active seasons.
func (r *SeasonRepository) Activate(ctx context.Context, seasonID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx activate season: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	offQuery, offArgs, err := qb.Update("seasons").
		Set("is_active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("is_active", true)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate seasons query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, offQuery, offArgs...); err != nil {
		return fmt.Errorf("deactivate seasons: %w", err)
	}

	onQuery, onArgs, err := qb.Update("seasons").
		Set("is_active", true).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build activate season query: %w", err)
	}
	res, err := tx.ExecContext(ctx, onQuery, onArgs...)
	if err != nil {
		return fmt.Errorf("activate season: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("season %s not found", seasonID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate season tx: %w", err)
	}
	return nil
}

// DeleteCascade removes the season and everything hanging off it. The
// order respects foreign keys: history, games, matches, player rows,
// then the season itself.
func (r *SeasonRepository) DeleteCascade(ctx context.Context, seasonID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx delete season: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := acquireSeasonLock(ctx, tx, seasonID); err != nil {
		return err
	}

	steps := []struct {
		name  string
		table string
		cond  qb.Condition
	}{
		{"history", "elo_history", qb.Eq("season_id", seasonID)},
		{"games", "games", qb.Eq("season_id", seasonID)},
		{"matches", "matches", qb.Eq("season_id", seasonID)},
		{"player seasons", "player_seasons", qb.Eq("season_id", seasonID)},
		{"season", "seasons", qb.Eq("id", seasonID)},
	}
	for _, step := range steps {
		query, args, err := qb.DeleteFrom(step.table).Where(step.cond).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete %s query: %w", step.name, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete season tx: %w", err)
	}
	return nil
}

// ReassignGames retags games, and the matches whose games all moved,
// from one season to another. History rows keep their season until the
// next replay rewrites them.
func (r *SeasonRepository) ReassignGames(ctx context.Context, fromSeasonID, toSeasonID string, playedFrom *time.Time) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx reassign games: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := acquireSeasonLock(ctx, tx, fromSeasonID); err != nil {
		return 0, err
	}
	if err := acquireSeasonLock(ctx, tx, toSeasonID); err != nil {
		return 0, err
	}

	conditions := []qb.Condition{qb.Eq("season_id", fromSeasonID)}
	if playedFrom != nil {
		conditions = append(conditions, qb.Gte("played_at", *playedFrom))
	}
	query, args, err := qb.Update("games").
		Set("season_id", toSeasonID).
		Where(conditions...).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build reassign games query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reassign games: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count reassigned games: %w", err)
	}

	matchQuery, matchArgs, err := qb.Update("matches").
		Set("season_id", toSeasonID).
		Where(
			qb.Eq("season_id", fromSeasonID),
			qb.Expr("NOT EXISTS (SELECT 1 FROM games WHERE games.match_id = matches.id AND games.season_id = ?)", fromSeasonID),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build reassign matches query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, matchQuery, matchArgs...); err != nil {
		return 0, fmt.Errorf("reassign matches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reassign games tx: %w", err)
	}
	return int(moved), nil
}

func (r *SeasonRepository) GetPlayerSeason(ctx context.Context, seasonID, playerID string) (season.PlayerSeason, bool, error) {
	query, args, err := qb.Select("*").From("player_seasons").
		Where(
			qb.Eq("season_id", seasonID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return season.PlayerSeason{}, false, fmt.Errorf("build get player season query: %w", err)
	}

	var row playerSeasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.PlayerSeason{}, false, nil
		}
		return season.PlayerSeason{}, false, fmt.Errorf("get player season: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SeasonRepository) ListPlayerSeasons(ctx context.Context, seasonID string) ([]season.PlayerSeason, error) {
	query, args, err := qb.Select("*").From("player_seasons").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player seasons query: %w", err)
	}

	var rows []playerSeasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player seasons: %w", err)
	}

	out := make([]season.PlayerSeason, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SeasonRepository) UpsertPlayerSeason(ctx context.Context, ps season.PlayerSeason) error {
	query, args, err := qb.InsertInto("player_seasons").
		Columns("player_id", "season_id", "current_elo", "games_played", "wins", "losses", "is_included").
		Values(ps.PlayerID, ps.SeasonID, ps.CurrentElo, ps.GamesPlayed, ps.Wins, ps.Losses, ps.IsIncluded).
		Suffix(`ON CONFLICT (player_id, season_id)
DO UPDATE SET
    current_elo = EXCLUDED.current_elo,
    games_played = EXCLUDED.games_played,
    wins = EXCLUDED.wins,
    losses = EXCLUDED.losses,
    is_included = EXCLUDED.is_included,
    updated_at = NOW()`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert player season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player season: %w", err)
	}
	return nil
}

func (r *SeasonRepository) SetInclusion(ctx context.Context, seasonID, playerID string, included bool) error {
	query, args, err := qb.Update("player_seasons").
		Set("is_included", included).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("season_id", seasonID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set inclusion query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set inclusion: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("player %s has no row in season %s", playerID, seasonID)
	}
	return nil
}

func (r *SeasonRepository) EnsurePlayers(ctx context.Context, seasonID string, playerIDs []string, startingElo float64) error {
	for _, playerID := range playerIDs {
		query, args, err := qb.InsertInto("player_seasons").
			Columns("player_id", "season_id", "current_elo", "games_played", "wins", "losses", "is_included").
			Values(playerID, seasonID, startingElo, 0, 0, 0, true).
			Suffix("ON CONFLICT (player_id, season_id) DO NOTHING").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build ensure player season query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("ensure player season: %w", err)
		}
	}
	return nil
}

func (r *SeasonRepository) Leaderboard(ctx context.Context, seasonID string) ([]season.LeaderboardEntry, error) {
	query, args, err := qb.Select(
		"ps.player_id AS player_id",
		"p.name AS player_name",
		"ps.current_elo AS current_elo",
		"ps.games_played AS games_played",
		"ps.wins AS wins",
		"ps.losses AS losses",
	).
		From("player_seasons ps JOIN players p ON p.id = ps.player_id").
		Where(
			qb.Eq("ps.season_id", seasonID),
			qb.Eq("ps.is_included", true),
		).
		OrderBy("ps.current_elo DESC", "ps.player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard query: %w", err)
	}

	var rows []leaderboardRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	out := make([]season.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		out = append(out, season.LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    row.PlayerID,
			PlayerName:  row.PlayerName,
			CurrentElo:  row.CurrentElo,
			GamesPlayed: row.GamesPlayed,
			Wins:        row.Wins,
			Losses:      row.Losses,
		})
	}
	return out, nil
}
