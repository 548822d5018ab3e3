package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ReferenceRepository reads the status and priority lookup tables.
type ReferenceRepository interface {
	ListStatuses(ctx context.Context) ([]domain.StatusRef, error)
	ListPriorities(ctx context.Context) ([]domain.PriorityRef, error)
	GetPriority(ctx context.Context, id domain.PriorityID) (*domain.PriorityRef, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository builds repository.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

func (r *referenceRepository) ListStatuses(ctx context.Context) ([]domain.StatusRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM ticket_statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusRef
	for rows.Next() {
		var ref domain.StatusRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListPriorities(ctx context.Context) ([]domain.PriorityRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM ticket_priorities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PriorityRef
	for rows.Next() {
		var ref domain.PriorityRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func (r *referenceRepository) GetPriority(ctx context.Context, id domain.PriorityID) (*domain.PriorityRef, error) {
	var ref domain.PriorityRef
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM ticket_priorities WHERE id=$1`, id).Scan(&ref.ID, &ref.Name); err != nil {
		return nil, err
	}
	return &ref, nil
}
