package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CustomerID *string
	Statuses   []domain.TicketStatus
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence. A Save must be visible
// to an immediately following GetByID from the same caller.
type TicketRepository interface {
	// NextDisplayID returns the next value of the display-id sequence. The
	// sequence lives outside the ticket records and increments atomically,
	// so two concurrent creations can never be handed the same value.
	NextDisplayID(ctx context.Context) (int64, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Save(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates a Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) NextDisplayID(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('ticket_display_seq')`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (display_id, title, status, customer_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.DisplayID,
		ticket.Title,
		ticket.Status,
		ticket.CustomerID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, updated_at=$2
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, ticket.Status, ticket.UpdatedAt, ticket.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, display_id, title, status, customer_id, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.DisplayID,
		&ticket.Title,
		&ticket.Status,
		&ticket.CustomerID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, display_id, title, status, customer_id, created_at, updated_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.DisplayID,
			&ticket.Title,
			&ticket.Status,
			&ticket.CustomerID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1`, status).Scan(&count)
	return count, err
}
