package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/avelier/club-ladder/internal/domain/eloconfig"
	qb "github.com/avelier/club-ladder/internal/platform/querybuilder"
)

type EloConfigRepository struct {
	db *sqlx.DB
}

func NewEloConfigRepository(db *sqlx.DB) *EloConfigRepository {
	return &EloConfigRepository{db: db}
}

func (r *EloConfigRepository) Create(ctx context.Context, c eloconfig.Config) error {
	insertModel := eloConfigInsertModel{
		ID:                   c.ID,
		Version:              c.Version,
		Description:          c.Description,
		StartingElo:          c.StartingElo,
		KFactor:              c.Rating.KFactor,
		BaseKFactor:          nullFloat(c.Rating.BaseKFactor),
		NewPlayerKBonus:      nullFloat(c.Rating.NewPlayerKBonus),
		NewPlayerBonusPeriod: nullInt(c.Rating.NewPlayerBonusPeriod),
		DecayCurve:           string(c.Rating.DecayCurve),
		IsActive:             c.IsActive,
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	query, args, err := qb.InsertModel("elo_configurations", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert elo config query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("elo config version %q already exists: %w", c.Version, err)
		}
		return fmt.Errorf("insert elo config: %w", err)
	}
	return nil
}

func (r *EloConfigRepository) GetByID(ctx context.Context, configID string) (eloconfig.Config, bool, error) {
	return r.getOne(ctx, qb.Eq("id", configID))
}

func (r *EloConfigRepository) GetByVersion(ctx context.Context, version string) (eloconfig.Config, bool, error) {
	return r.getOne(ctx, qb.Eq("version", version))
}

func (r *EloConfigRepository) GetActive(ctx context.Context) (eloconfig.Config, bool, error) {
	return r.getOne(ctx, qb.Eq("is_active", true))
}

func (r *EloConfigRepository) getOne(ctx context.Context, cond qb.Condition) (eloconfig.Config, bool, error) {
	query, args, err := qb.Select("*").From("elo_configurations").
		Where(cond).
		ToSQL()
	if err != nil {
		return eloconfig.Config{}, false, fmt.Errorf("build get elo config query: %w", err)
	}

	var row eloConfigTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return eloconfig.Config{}, false, nil
		}
		return eloconfig.Config{}, false, fmt.Errorf("get elo config: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *EloConfigRepository) List(ctx context.Context) ([]eloconfig.Config, error) {
	query, args, err := qb.Select("*").From("elo_configurations").
		OrderBy("created_at DESC", "version").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list elo configs query: %w", err)
	}

	var rows []eloConfigTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list elo configs: %w", err)
	}

	out := make([]eloconfig.Config, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Activate clears the previous active flag and sets the target's in one
// transaction.
func (r *EloConfigRepository) Activate(ctx context.Context, configID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx activate elo config: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	offQuery, offArgs, err := qb.Update("elo_configurations").
		Set("is_active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("is_active", true)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate elo configs query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, offQuery, offArgs...); err != nil {
		return fmt.Errorf("deactivate elo configs: %w", err)
	}

	onQuery, onArgs, err := qb.Update("elo_configurations").
		Set("is_active", true).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", configID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build activate elo config query: %w", err)
	}
	res, err := tx.ExecContext(ctx, onQuery, onArgs...)
	if err != nil {
		return fmt.Errorf("activate elo config: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("elo config %s not found", configID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate elo config tx: %w", err)
	}
	return nil
}
