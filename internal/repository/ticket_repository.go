package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ErrVersionMismatch is returned by Save when the stored version differs from
// the expected one.
var ErrVersionMismatch = errors.New("ticket version mismatch")

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	SubmitterID *string
	AssigneeID  *string
	Statuses    []domain.StatusID
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Save persists mutable fields if the stored version equals expectedVersion,
	// then bumps ticket.Version.
	Save(ctx context.Context, ticket *domain.Ticket, expectedVersion int) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// Delete removes the ticket and its comments atomically.
	Delete(ctx context.Context, id int64) error
	// List returns tickets newest first.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, submitter_id, assignee_id, status_id, priority_id,
               category, created_at, resolved_at, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, submitter_id, assignee_id, status_id, priority_id, category, created_at, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, version`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.SubmitterID,
		ticket.AssigneeID,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.Category,
		ticket.CreatedAt,
		ticket.ResolvedAt,
	).Scan(&ticket.ID, &ticket.Version)
}

func (r *ticketRepository) Save(ctx context.Context, ticket *domain.Ticket, expectedVersion int) error {
	const query = `
        UPDATE tickets SET assignee_id=$1, status_id=$2, priority_id=$3, category=$4, resolved_at=$5,
            version=version+1
        WHERE id=$6 AND version=$7
        RETURNING version`
	err := r.pool.QueryRow(ctx, query,
		ticket.AssigneeID,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.Category,
		ticket.ResolvedAt,
		ticket.ID,
		expectedVersion,
	).Scan(&ticket.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrVersionMismatch
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM ticket_comments WHERE ticket_id=$1`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "") {
			return fmt.Errorf("ticket %d still referenced: %w", id, err)
		}
		return fmt.Errorf("delete ticket: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmitterID != nil {
		args = append(args, *filter.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("submitter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status_id IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.SubmitterID,
		&ticket.AssigneeID,
		&ticket.StatusID,
		&ticket.PriorityID,
		&ticket.Category,
		&ticket.CreatedAt,
		&ticket.ResolvedAt,
		&ticket.Version,
	)
}
