package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// UserRepository reads identities and role grants provisioned elsewhere.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// RolesOf returns the caller's current roles; unknown users yield pgx.ErrNoRows.
	RolesOf(ctx context.Context, id string) (domain.RoleSet, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	// ListStaff returns users holding a staff role, ordered by name.
	ListStaff(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userSelect = `
        SELECT u.id, u.full_name, u.email, COALESCE(array_agg(r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
        FROM users u LEFT JOIN user_roles r ON r.user_id = u.id`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := userSelect + ` WHERE u.id=$1 GROUP BY u.id`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &users[0], nil
}

func (r *userRepository) RolesOf(ctx context.Context, id string) (domain.RoleSet, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := userSelect + ` WHERE u.id = ANY($1) GROUP BY u.id`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func (r *userRepository) ListStaff(ctx context.Context) ([]domain.User, error) {
	query := userSelect + `
        WHERE EXISTS (SELECT 1 FROM user_roles s WHERE s.user_id = u.id AND s.role IN ($1, $2))
        GROUP BY u.id ORDER BY u.full_name ASC, u.id ASC`
	rows, err := r.pool.Query(ctx, query, string(domain.RoleSupportAgent), string(domain.RoleManager))
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var (
			user  domain.User
			roles []string
		)
		if err := rows.Scan(&user.ID, &user.FullName, &user.Email, &roles); err != nil {
			return nil, err
		}
		user.Roles = domain.NewRoleSet()
		for _, role := range roles {
			if r := domain.Role(role); r.Valid() {
				user.Roles[r] = struct{}{}
			}
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
