package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// ViolationFilter captures operator listing parameters.
type ViolationFilter struct {
	ApplicationID *string
	Escalated     *bool
	Limit         int
	Offset        int
}

// EscalationParams carries the full escalation state transition. Everything
// here is applied in one transaction: the violation flip, the work-item
// reassignment and priority bump, and the audit record.
type EscalationParams struct {
	ViolationID string
	WorkItemID  string
	FromUserID  *string
	ToUserID    string
	NewPriority domain.Priority
	Reason      string
	Notes       string
	EscalatedBy *string
}

// ViolationRepository owns the sla_violations table, the only mutable state
// the engine holds.
type ViolationRepository interface {
	// Create inserts a violation unless one already exists for the same
	// (work item, type) pair. The unique constraint makes detection
	// idempotent even across concurrent sweeps; created reports whether
	// this call inserted the row.
	Create(ctx context.Context, violation *domain.SlaViolation) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.SlaViolation, error)
	Exists(ctx context.Context, workItemID string, violationType domain.ViolationType) (bool, error)
	List(ctx context.Context, filter ViolationFilter) ([]domain.SlaViolation, error)
	ListEscalatedByWorkItem(ctx context.Context, workItemID string) ([]domain.SlaViolation, error)
	Escalate(ctx context.Context, params EscalationParams) error
	CountViolatedItems(ctx context.Context, applicationID string, from, to time.Time) (int, error)
	CountViolatedItemsByPriority(ctx context.Context, applicationID string, from, to time.Time) ([]PriorityCount, error)
}

type violationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository instantiates the repository.
func NewViolationRepository(pool *pgxpool.Pool) ViolationRepository {
	return &violationRepository{pool: pool}
}

const violationColumns = `
        id, work_item_id, sla_config_id, violation_type, expected_time, detected_at,
        delay_hours, severity, is_escalated, escalated_to_user_id, escalated_at,
        is_resolved, resolved_at, created_at, updated_at`

func (r *violationRepository) Create(ctx context.Context, violation *domain.SlaViolation) (bool, error) {
	const query = `
        INSERT INTO sla_violations (work_item_id, sla_config_id, violation_type, expected_time,
            detected_at, delay_hours, severity)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (work_item_id, violation_type) DO NOTHING
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		violation.WorkItemID,
		violation.SlaConfigID,
		violation.ViolationType,
		violation.ExpectedTime,
		violation.DetectedAt,
		violation.DelayHours,
		violation.Severity,
	).Scan(&violation.ID, &violation.CreatedAt, &violation.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *violationRepository) GetByID(ctx context.Context, id string) (*domain.SlaViolation, error) {
	query := `SELECT` + violationColumns + ` FROM sla_violations WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanViolation(row)
}

func (r *violationRepository) Exists(ctx context.Context, workItemID string, violationType domain.ViolationType) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM sla_violations WHERE work_item_id=$1 AND violation_type=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, workItemID, violationType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *violationRepository) List(ctx context.Context, filter ViolationFilter) ([]domain.SlaViolation, error) {
	base := `SELECT v.id, v.work_item_id, v.sla_config_id, v.violation_type, v.expected_time,
                    v.detected_at, v.delay_hours, v.severity, v.is_escalated, v.escalated_to_user_id,
                    v.escalated_at, v.is_resolved, v.resolved_at, v.created_at, v.updated_at
             FROM sla_violations v
             JOIN work_items w ON w.id = v.work_item_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ApplicationID != nil {
		args = append(args, *filter.ApplicationID)
		clauses = append(clauses, fmt.Sprintf("w.application_id=$%d", len(args)))
	}
	if filter.Escalated != nil {
		args = append(args, *filter.Escalated)
		clauses = append(clauses, fmt.Sprintf("v.is_escalated=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY v.detected_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanViolations(rows)
}

func (r *violationRepository) ListEscalatedByWorkItem(ctx context.Context, workItemID string) ([]domain.SlaViolation, error) {
	query := `SELECT` + violationColumns + `
        FROM sla_violations
        WHERE work_item_id=$1 AND is_escalated=TRUE
        ORDER BY escalated_at DESC`

	rows, err := r.pool.Query(ctx, query, workItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanViolations(rows)
}

// Escalate applies the escalation state transition atomically: flip the
// violation (guarded so a row already escalated is never flipped twice),
// reassign and promote the work item, write the audit record. Notification
// handoff is intentionally outside this boundary.
func (r *violationRepository) Escalate(ctx context.Context, params EscalationParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const flipQuery = `
        UPDATE sla_violations
        SET is_escalated=TRUE, escalated_to_user_id=$1, escalated_at=NOW(), updated_at=NOW()
        WHERE id=$2 AND is_escalated=FALSE`
	cmd, err := tx.Exec(ctx, flipQuery, params.ToUserID, params.ViolationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var escalated bool
		err := tx.QueryRow(ctx, `SELECT is_escalated FROM sla_violations WHERE id=$1`, params.ViolationID).Scan(&escalated)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewViolationNotFound(params.ViolationID)
		}
		if err != nil {
			return err
		}
		return apperrors.NewAlreadyEscalated(params.ViolationID)
	}

	const reassignQuery = `
        UPDATE work_items SET assigned_user_id=$1, priority=$2, updated_at=NOW() WHERE id=$3`
	if _, err := tx.Exec(ctx, reassignQuery, params.ToUserID, params.NewPriority, params.WorkItemID); err != nil {
		return err
	}

	const auditQuery = `
        INSERT INTO escalation_records (violation_id, work_item_id, from_user_id, to_user_id, reason, notes, escalated_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.Exec(ctx, auditQuery,
		params.ViolationID,
		params.WorkItemID,
		params.FromUserID,
		params.ToUserID,
		params.Reason,
		params.Notes,
		params.EscalatedBy,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *violationRepository) CountViolatedItems(ctx context.Context, applicationID string, from, to time.Time) (int, error) {
	const query = `
        SELECT COUNT(DISTINCT v.work_item_id)
        FROM sla_violations v
        JOIN work_items w ON w.id = v.work_item_id
        WHERE w.application_id=$1 AND w.created_at >= $2 AND w.created_at <= $3`

	var count int
	if err := r.pool.QueryRow(ctx, query, applicationID, from, to).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *violationRepository) CountViolatedItemsByPriority(ctx context.Context, applicationID string, from, to time.Time) ([]PriorityCount, error) {
	const query = `
        SELECT w.priority, COUNT(DISTINCT v.work_item_id)
        FROM sla_violations v
        JOIN work_items w ON w.id = v.work_item_id
        WHERE w.application_id=$1 AND w.created_at >= $2 AND w.created_at <= $3
        GROUP BY w.priority`

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

func scanViolation(row pgx.Row) (*domain.SlaViolation, error) {
	var v domain.SlaViolation
	if err := row.Scan(
		&v.ID,
		&v.WorkItemID,
		&v.SlaConfigID,
		&v.ViolationType,
		&v.ExpectedTime,
		&v.DetectedAt,
		&v.DelayHours,
		&v.Severity,
		&v.IsEscalated,
		&v.EscalatedToUserID,
		&v.EscalatedAt,
		&v.IsResolved,
		&v.ResolvedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanViolations(rows pgx.Rows) ([]domain.SlaViolation, error) {
	var result []domain.SlaViolation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, rows.Err()
}
