package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// ItemStats aggregates work-item level compliance inputs.
type ItemStats struct {
	TotalItems         int
	AvgResponseHours   *float64
	AvgResolutionHours *float64
}

// PriorityCount is a per-priority item tally.
type PriorityCount struct {
	Priority domain.Priority
	Items    int
}

// WorkItemRepository is the engine's view over inquiries. The ticketing
// subsystem owns the rows; the engine only reads them here (escalation
// reassignment happens inside the violation repository's transaction).
type WorkItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListOpenByApplication(ctx context.Context, applicationID string) ([]domain.WorkItem, error)
	Stats(ctx context.Context, applicationID string, from, to time.Time) (*ItemStats, error)
	CountByPriority(ctx context.Context, applicationID string, from, to time.Time) ([]PriorityCount, error)
}

type workItemRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository instantiates the repository.
func NewWorkItemRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &workItemRepository{pool: pool}
}

const workItemColumns = `
        id, application_id, priority, status, assigned_user_id, has_any_response,
        first_responded_at, resolved_at, created_at, updated_at`

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT` + workItemColumns + ` FROM work_items WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanWorkItem(row)
}

func (r *workItemRepository) ListOpenByApplication(ctx context.Context, applicationID string) ([]domain.WorkItem, error) {
	query := `SELECT` + workItemColumns + `
        FROM work_items WHERE application_id=$1 AND status=$2 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, applicationID, domain.WorkItemStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *workItemRepository) Stats(ctx context.Context, applicationID string, from, to time.Time) (*ItemStats, error) {
	const query = `
        SELECT COUNT(*),
               AVG(EXTRACT(EPOCH FROM (first_responded_at - created_at)) / 3600.0),
               AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0)
        FROM work_items
        WHERE application_id=$1 AND created_at >= $2 AND created_at <= $3`

	var stats ItemStats
	if err := r.pool.QueryRow(ctx, query, applicationID, from, to).Scan(
		&stats.TotalItems,
		&stats.AvgResponseHours,
		&stats.AvgResolutionHours,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *workItemRepository) CountByPriority(ctx context.Context, applicationID string, from, to time.Time) ([]PriorityCount, error) {
	const query = `
        SELECT priority, COUNT(*)
        FROM work_items
        WHERE application_id=$1 AND created_at >= $2 AND created_at <= $3
        GROUP BY priority`

	rows, err := r.pool.Query(ctx, query, applicationID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PriorityCount
	for rows.Next() {
		var pc PriorityCount
		if err := rows.Scan(&pc.Priority, &pc.Items); err != nil {
			return nil, err
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}

func scanWorkItem(row pgx.Row) (*domain.WorkItem, error) {
	var item domain.WorkItem
	if err := row.Scan(
		&item.ID,
		&item.ApplicationID,
		&item.Priority,
		&item.Status,
		&item.AssignedUserID,
		&item.HasAnyResponse,
		&item.FirstRespondedAt,
		&item.ResolvedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
