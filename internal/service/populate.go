package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// populateTicket resolves the customer and every note author so callers get
// a fully-populated ticket, not just foreign keys. Authors are fetched once
// per distinct id.
func populateTicket(ctx context.Context, users repository.UserRepository, notes repository.NoteRepository, ticket *domain.Ticket) (*domain.Ticket, error) {
	customer, err := users.GetByID(ctx, ticket.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer")
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	ticket.Customer = customer

	thread, err := notes.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	authors := map[string]*domain.User{customer.ID: customer}
	for i := range thread {
		author, ok := authors[thread[i].AuthorID]
		if !ok {
			author, err = users.GetByID(ctx, thread[i].AuthorID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewPersistenceError(err)
			}
			authors[thread[i].AuthorID] = author
		}
		thread[i].Author = author
	}
	ticket.Notes = thread
	return ticket, nil
}
