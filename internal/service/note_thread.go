package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/authz"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// NoteThread appends responses to a ticket's thread. Notes are immutable
// once written; the thread only ever grows, in creation order.
type NoteThread struct {
	tickets    repository.TicketRepository
	notes      repository.NoteRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// ThreadDependencies bundles collaborators for the note thread service.
type ThreadDependencies struct {
	TicketRepo repository.TicketRepository
	NoteRepo   repository.NoteRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewNoteThread constructs the service.
func NewNoteThread(deps ThreadDependencies) *NoteThread {
	return &NoteThread{
		tickets:    deps.TicketRepo,
		notes:      deps.NoteRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Append adds a note authored by the actor and returns the updated,
// populated ticket. The author's role is snapshotted on the note so later
// role changes never rewrite the thread. The attachment reference comes from
// the attachment store and is stored verbatim.
func (s *NoteThread) Append(ctx context.Context, actor *domain.User, ticketID, text string, attachmentRef *string) (*domain.Ticket, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, apperrors.NewValidationError("note text is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// An owned-scope actor gets the same denial for an absent ticket
			// as for a foreign one, so the error code never reveals existence.
			if authz.ScopeFor(actor, authz.ActionAddNote) == authz.ScopeOwned {
				return nil, apperrors.NewForbidden("not authorized")
			}
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	if !authz.Can(actor, authz.ActionAddNote, ticket.CustomerID) {
		return nil, apperrors.NewForbidden("not authorized")
	}

	now := time.Now().UTC()
	note := &domain.Note{
		TicketID:      ticket.ID,
		Text:          body,
		AuthorID:      actor.ID,
		AuthorRole:    actor.Role,
		AttachmentRef: attachmentRef,
		CreatedAt:     now,
	}
	if err := s.notes.Append(ctx, note); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	ticket.UpdatedAt = now
	if err := s.tickets.Save(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.NewPersistenceError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketNoteAddedPayload{
			NoteID:      note.ID,
			AuthorID:    note.AuthorID,
			AuthorRole:  note.AuthorRole,
			BodyPreview: bodyPreview(note.Text, 120),
		},
	})
	return populateTicket(ctx, s.users, s.notes, ticket)
}

func (s *NoteThread) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
