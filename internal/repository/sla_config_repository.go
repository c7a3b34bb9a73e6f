package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// SlaConfigRepository reads deadline policies. Configuration management owns
// writes; the engine never mutates these rows.
type SlaConfigRepository interface {
	ListActive(ctx context.Context) ([]domain.SlaConfig, error)
	GetByID(ctx context.Context, id string) (*domain.SlaConfig, error)
}

type slaConfigRepository struct {
	pool *pgxpool.Pool
}

// NewSlaConfigRepository instantiates the repository.
func NewSlaConfigRepository(pool *pgxpool.Pool) SlaConfigRepository {
	return &slaConfigRepository{pool: pool}
}

const slaConfigColumns = `
        id, application_id, priority_level, response_time_hours, resolution_time_hours,
        escalation_time_hours, business_hours_only, business_start_hour, business_end_hour,
        business_days, is_active, created_at, updated_at`

func (r *slaConfigRepository) ListActive(ctx context.Context) ([]domain.SlaConfig, error) {
	query := `SELECT` + slaConfigColumns + `
        FROM sla_configs WHERE is_active = TRUE ORDER BY application_id, priority_level`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SlaConfig
	for rows.Next() {
		cfg, err := scanSlaConfig(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cfg)
	}
	return result, rows.Err()
}

func (r *slaConfigRepository) GetByID(ctx context.Context, id string) (*domain.SlaConfig, error) {
	query := `SELECT` + slaConfigColumns + ` FROM sla_configs WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanSlaConfig(row)
}

func scanSlaConfig(row pgx.Row) (*domain.SlaConfig, error) {
	var cfg domain.SlaConfig
	var days []int32
	if err := row.Scan(
		&cfg.ID,
		&cfg.ApplicationID,
		&cfg.PriorityLevel,
		&cfg.ResponseTimeHours,
		&cfg.ResolutionTimeHours,
		&cfg.EscalationTimeHours,
		&cfg.BusinessHoursOnly,
		&cfg.BusinessStartHour,
		&cfg.BusinessEndHour,
		&days,
		&cfg.IsActive,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cfg.BusinessDays = make([]int, 0, len(days))
	for _, d := range days {
		cfg.BusinessDays = append(cfg.BusinessDays, int(d))
	}
	return &cfg, nil
}
