package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// NoteRepository manages the append-only note thread. Each note is its own
// row, so an append is a single INSERT and two concurrent appends on the
// same ticket both survive.
type NoteRepository interface {
	Append(ctx context.Context, note *domain.Note) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository builds a Postgres-backed repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Append(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO ticket_notes (ticket_id, text, author_id, author_role, attachment_ref, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		note.TicketID,
		note.Text,
		note.AuthorID,
		note.AuthorRole,
		note.AttachmentRef,
		note.CreatedAt,
	).Scan(&note.ID)
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, ticket_id, text, author_id, author_role, attachment_ref, created_at
        FROM ticket_notes WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.Text,
			&note.AuthorID,
			&note.AuthorRole,
			&note.AttachmentRef,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
