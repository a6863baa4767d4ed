package postgres

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/avelier/club-ladder/internal/domain/job"
)

type jobTableModel struct {
	ID             string     `db:"id"`
	Type           string     `db:"type"`
	Status         string     `db:"status"`
	Progress       int        `db:"progress"`
	TotalItems     int        `db:"total_items"`
	ProcessedItems int        `db:"processed_items"`
	ResultData     string     `db:"result_data"`
	ErrorMessage   string     `db:"error_message"`
	SeasonID       string     `db:"season_id"`
	CreatedBy      string     `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	StartedAt      *time.Time `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

type jobInsertModel struct {
	ID             string     `db:"id"`
	Type           string     `db:"type"`
	Status         string     `db:"status"`
	Progress       int        `db:"progress"`
	TotalItems     int        `db:"total_items"`
	ProcessedItems int        `db:"processed_items"`
	ResultData     string     `db:"result_data"`
	ErrorMessage   string     `db:"error_message"`
	SeasonID       string     `db:"season_id"`
	CreatedBy      string     `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	StartedAt      *time.Time `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

func marshalJobResult(result map[string]any) (string, error) {
	if len(result) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal job result: %w", err)
	}
	return string(raw), nil
}

func (row jobTableModel) toDomain() (job.Job, error) {
	result := map[string]any{}
	if row.ResultData != "" {
		if err := jsoniter.Unmarshal([]byte(row.ResultData), &result); err != nil {
			return job.Job{}, fmt.Errorf("unmarshal job result: %w", err)
		}
	}
	return job.Job{
		ID:             row.ID,
		Type:           job.Type(row.Type),
		Status:         job.Status(row.Status),
		Progress:       row.Progress,
		TotalItems:     row.TotalItems,
		ProcessedItems: row.ProcessedItems,
		Result:         result,
		ErrorMessage:   row.ErrorMessage,
		SeasonID:       row.SeasonID,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
	}, nil
}
