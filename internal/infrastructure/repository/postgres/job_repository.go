package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/avelier/club-ladder/internal/domain/job"
	qb "github.com/avelier/club-ladder/internal/platform/querybuilder"
)

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j job.Job) error {
	resultData, err := marshalJobResult(j.Result)
	if err != nil {
		return err
	}
	insertModel := jobInsertModel{
		ID:             j.ID,
		Type:           string(j.Type),
		Status:         string(j.Status),
		Progress:       j.Progress,
		TotalItems:     j.TotalItems,
		ProcessedItems: j.ProcessedItems,
		ResultData:     resultData,
		ErrorMessage:   j.ErrorMessage,
		SeasonID:       j.SeasonID,
		CreatedBy:      j.CreatedBy,
		CreatedAt:      j.CreatedAt,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
	}
	query, args, err := qb.InsertModel("jobs", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert job query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, jobID string) (job.Job, bool, error) {
	query, args, err := qb.Select("*").From("jobs").
		Where(qb.Eq("id", jobID)).
		ToSQL()
	if err != nil {
		return job.Job{}, false, fmt.Errorf("build get job query: %w", err)
	}

	var row jobTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return job.Job{}, false, nil
		}
		return job.Job{}, false, fmt.Errorf("get job: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return job.Job{}, false, err
	}
	return item, true, nil
}

func (r *JobRepository) Update(ctx context.Context, j job.Job) error {
	resultData, err := marshalJobResult(j.Result)
	if err != nil {
		return err
	}
	query, args, err := qb.Update("jobs").
		Set("status", string(j.Status)).
		Set("progress", j.Progress).
		Set("total_items", j.TotalItems).
		Set("processed_items", j.ProcessedItems).
		Set("result_data", resultData).
		Set("error_message", j.ErrorMessage).
		Set("started_at", j.StartedAt).
		Set("completed_at", j.CompletedAt).
		Where(qb.Eq("id", j.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update job query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) List(ctx context.Context, limit int) ([]job.Job, error) {
	query, args, err := qb.Select("*").From("jobs").
		OrderBy("created_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list jobs query: %w", err)
	}

	var rows []jobTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	out := make([]job.Job, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
