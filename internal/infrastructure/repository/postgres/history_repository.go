package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/avelier/club-ladder/internal/domain/history"
	"github.com/avelier/club-ladder/internal/domain/rating"
	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/id"
	qb "github.com/avelier/club-ladder/internal/platform/querybuilder"
)

type HistoryRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewHistoryRepository(db *sqlx.DB, idGen id.Generator) *HistoryRepository {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &HistoryRepository{db: db, idGen: idGen}
}

func (r *HistoryRepository) ListBySeason(ctx context.Context, seasonID string) ([]history.Entry, error) {
	return r.list(ctx, qb.Eq("season_id", seasonID))
}

func (r *HistoryRepository) ListByPlayerSeason(ctx context.Context, seasonID, playerID string) ([]history.Entry, error) {
	return r.list(ctx, qb.Eq("season_id", seasonID), qb.Eq("player_id", playerID))
}

func (r *HistoryRepository) list(ctx context.Context, conditions ...qb.Condition) ([]history.Entry, error) {
	query, args, err := qb.Select("*").From("elo_history").
		Where(conditions...).
		OrderBy("played_at", "game_id", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list history query: %w", err)
	}

	var rows []historyTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	out := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ReplaySeason rebuilds the season's derived state from its games in
// one transaction: discard history and aggregates, seed every enrolled
// player at the season's starting rating, replay games in
// (played_at, id) order, then write everything back.
func (r *HistoryRepository) ReplaySeason(ctx context.Context, s season.Season, progress func(processed, total int)) (history.ReplayStats, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return history.ReplayStats{}, fmt.Errorf("begin tx replay season: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := acquireSeasonLock(ctx, tx, s.ID); err != nil {
		return history.ReplayStats{}, err
	}

	games, versionByGame, err := seasonGamesOrdered(ctx, tx, s.ID)
	if err != nil {
		return history.ReplayStats{}, err
	}

	playerIDs, err := seasonPlayerIDs(ctx, tx, s.ID)
	if err != nil {
		return history.ReplayStats{}, err
	}

	outcomes, states, err := rating.Replay(s.Rating, s.StartingElo, playerIDs, games, func(applied int) error {
		if progress != nil {
			progress(applied, len(games))
		}
		return nil
	})
	if err != nil {
		return history.ReplayStats{}, err
	}

	clearQuery, clearArgs, err := qb.DeleteFrom("elo_history").
		Where(qb.Eq("season_id", s.ID)).
		ToSQL()
	if err != nil {
		return history.ReplayStats{}, fmt.Errorf("build clear history query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return history.ReplayStats{}, fmt.Errorf("clear history: %w", err)
	}

	entries := 0
	for _, outcome := range outcomes {
		for _, side := range []rating.HistoryEntry{outcome.Winner, outcome.Loser} {
			entryID, err := r.idGen.NewID()
			if err != nil {
				return history.ReplayStats{}, fmt.Errorf("generate history id: %w", err)
			}
			insert := historyInsertModel{
				ID:         entryID,
				SeasonID:   s.ID,
				GameID:     side.GameID,
				PlayerID:   side.PlayerID,
				EloBefore:  side.EloBefore,
				EloAfter:   side.EloAfter,
				EloChange:  side.EloChange,
				KFactor:    side.KFactor,
				Won:        side.Won,
				EloVersion: versionByGame[side.GameID],
				PlayedAt:   side.PlayedAt,
			}
			query, args, err := qb.InsertModel("elo_history", insert, "")
			if err != nil {
				return history.ReplayStats{}, fmt.Errorf("build insert history query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return history.ReplayStats{}, fmt.Errorf("insert history entry: %w", err)
			}
			entries++
		}
	}

	for playerID, state := range states {
		if err := writePlayerState(ctx, tx, s.ID, playerID, state); err != nil {
			return history.ReplayStats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return history.ReplayStats{}, fmt.Errorf("commit replay season tx: %w", err)
	}

	return history.ReplayStats{
		GamesReplayed:  len(games),
		PlayersSeeded:  len(playerIDs),
		EntriesWritten: entries,
	}, nil
}

func seasonGamesOrdered(ctx context.Context, tx *sqlx.Tx, seasonID string) ([]rating.GameRecord, map[string]string, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("played_at", "id").
		ToSQL()
	if err != nil {
		return nil, nil, fmt.Errorf("build list season games query: %w", err)
	}

	var rows []gameTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list season games: %w", err)
	}

	games := make([]rating.GameRecord, 0, len(rows))
	versionByGame := make(map[string]string, len(rows))
	for _, row := range rows {
		games = append(games, rating.GameRecord{
			ID:       row.ID,
			WinnerID: row.WinnerID,
			LoserID:  row.LoserID,
			PlayedAt: row.PlayedAt,
		})
		versionByGame[row.ID] = row.EloVersion
	}
	return games, versionByGame, nil
}

func seasonPlayerIDs(ctx context.Context, tx *sqlx.Tx, seasonID string) ([]string, error) {
	query, args, err := qb.Select("player_id").From("player_seasons").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season players query: %w", err)
	}

	var playerIDs []string
	if err := tx.SelectContext(ctx, &playerIDs, query, args...); err != nil {
		return nil, fmt.Errorf("list season players: %w", err)
	}
	return playerIDs, nil
}
