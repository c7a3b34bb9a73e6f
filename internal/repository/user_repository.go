package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// UserRepository is the read-only directory view used for escalation
// targeting. Identity management owns the rows.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ListActiveByRole returns active users holding the role, most senior
	// (earliest created) first. A nil applicationID matches system-level
	// users with no application scope.
	ListActiveByRole(ctx context.Context, applicationID *string, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = ` id, application_id, name, email, role, is_active, created_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanUser(row)
}

func (r *userRepository) ListActiveByRole(ctx context.Context, applicationID *string, role domain.Role) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users
        WHERE role=$1 AND is_active=TRUE AND application_id IS NOT DISTINCT FROM $2
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, role, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.ApplicationID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
