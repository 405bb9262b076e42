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

// TicketLifecycle owns ticket creation, status transitions, listing, and
// stats. Every operation takes the authenticated actor explicitly and checks
// the authorization policy before touching storage.
type TicketLifecycle struct {
	tickets    repository.TicketRepository
	notes      repository.NoteRepository
	users      repository.UserRepository
	statsCache *repository.StatsCache
	dispatcher events.Dispatcher
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo repository.TicketRepository
	NoteRepo   repository.NoteRepository
	UserRepo   repository.UserRepository
	StatsCache *repository.StatsCache
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes a ticket creation payload. CustomerID is only
// honored for staff actors; a customer always creates for self.
type TicketCreateInput struct {
	Title         string
	InitialNote   string
	CustomerID    string
	AttachmentRef *string
}

// TicketListFilter describes listing parameters. Role scoping is applied on
// top of these by the service.
type TicketListFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// NewTicketLifecycle constructs the service.
func NewTicketLifecycle(deps LifecycleDependencies) *TicketLifecycle {
	return &TicketLifecycle{
		tickets:    deps.TicketRepo,
		notes:      deps.NoteRepo,
		users:      deps.UserRepo,
		statsCache: deps.StatsCache,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket. The display id is allocated explicitly from the
// store's atomic sequence before the insert; nothing is assigned behind the
// caller's back at save time.
func (s *TicketLifecycle) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if !authz.Can(actor, authz.ActionCreateTicket, actor.ID) {
		return nil, apperrors.NewForbidden("not authorized")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	owner, err := s.resolveOwner(ctx, actor, input.CustomerID)
	if err != nil {
		return nil, err
	}

	seq, err := s.tickets.NextDisplayID(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		DisplayID:  domain.FormatDisplayID(seq),
		Title:      title,
		Status:     domain.TicketStatusActive,
		CustomerID: owner.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	if text := strings.TrimSpace(input.InitialNote); text != "" {
		note := &domain.Note{
			TicketID:      ticket.ID,
			Text:          text,
			AuthorID:      actor.ID,
			AuthorRole:    actor.Role,
			AttachmentRef: input.AttachmentRef,
			CreatedAt:     now,
		}
		if err := s.notes.Append(ctx, note); err != nil {
			return nil, apperrors.NewPersistenceError(err)
		}
	}

	_ = s.statsCache.Invalidate(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketCreatedPayload{
			DisplayID:  ticket.DisplayID,
			CustomerID: ticket.CustomerID,
			Title:      ticket.Title,
		},
	})
	return populateTicket(ctx, s.users, s.notes, ticket)
}

// Get returns a single populated ticket, enforcing view access. An
// owned-scope actor receives the same denial whether the ticket is absent or
// belongs to someone else, so the error code never reveals existence.
func (s *TicketLifecycle) Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		if apperrors.IsNotFound(err) && authz.ScopeFor(actor, authz.ActionViewTicket) == authz.ScopeOwned {
			return nil, apperrors.NewForbidden("not authorized")
		}
		return nil, err
	}
	if !authz.Can(actor, authz.ActionViewTicket, ticket.CustomerID) {
		return nil, apperrors.NewForbidden("not authorized")
	}
	return populateTicket(ctx, s.users, s.notes, ticket)
}

// List returns tickets visible to the actor, most recently updated first.
// Customers are implicitly scoped to their own tickets.
func (s *TicketLifecycle) List(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	scope := authz.ScopeFor(actor, authz.ActionListTickets)
	if scope == authz.ScopeNone {
		return nil, apperrors.NewForbidden("not authorized")
	}

	repoFilter := repository.TicketFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if scope == authz.ScopeOwned {
		customerID := actor.ID
		repoFilter.CustomerID = &customerID
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	customers := map[string]*domain.User{}
	for i := range tickets {
		customer, ok := customers[tickets[i].CustomerID]
		if !ok {
			customer, err = s.users.GetByID(ctx, tickets[i].CustomerID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewPersistenceError(err)
			}
			customers[tickets[i].CustomerID] = customer
		}
		tickets[i].Customer = customer
	}
	return tickets, nil
}

// SetStatus applies a status transition. All transitions between the three
// states are allowed; only the role gate applies. Last writer wins on
// concurrent updates.
func (s *TicketLifecycle) SetStatus(ctx context.Context, actor *domain.User, ticketID, newStatus string) (*domain.Ticket, error) {
	status, err := domain.ParseTicketStatus(newStatus)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	if !authz.Can(actor, authz.ActionChangeStatus, "") {
		return nil, apperrors.NewForbidden("not authorized")
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = status
	ticket.UpdatedAt = time.Now().UTC()
	if err := s.tickets.Save(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.NewPersistenceError(err)
	}

	_ = s.statsCache.Invalidate(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return populateTicket(ctx, s.users, s.notes, ticket)
}

// Stats returns ticket counts for the admin dashboard, served through the
// cache when one is configured.
func (s *TicketLifecycle) Stats(ctx context.Context, actor *domain.User) (*domain.TicketStats, error) {
	if !authz.Can(actor, authz.ActionViewStats, "") {
		return nil, apperrors.NewForbidden("not authorized")
	}

	if cached, ok := s.statsCache.Get(ctx); ok {
		return cached, nil
	}

	stats := &domain.TicketStats{}
	var err error
	if stats.TotalTickets, err = s.tickets.Count(ctx); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if stats.ActiveTickets, err = s.tickets.CountByStatus(ctx, domain.TicketStatusActive); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if stats.PendingTickets, err = s.tickets.CountByStatus(ctx, domain.TicketStatusPending); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if stats.ClosedTickets, err = s.tickets.CountByStatus(ctx, domain.TicketStatusClosed); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if stats.TotalCustomers, err = s.users.CountByRole(ctx, domain.RoleCustomer); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	_ = s.statsCache.Set(ctx, stats)
	return stats, nil
}

// resolveOwner determines which customer the ticket belongs to. Customers
// always own their own tickets; staff must name an existing customer.
func (s *TicketLifecycle) resolveOwner(ctx context.Context, actor *domain.User, customerID string) (*domain.User, error) {
	if actor.Role == domain.RoleCustomer {
		return actor, nil
	}
	if customerID == "" {
		return nil, apperrors.NewValidationError("customer id is required", nil)
	}
	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("customer not found", nil)
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	if customer.Role != domain.RoleCustomer {
		return nil, apperrors.NewValidationError("customer not found", nil)
	}
	return customer, nil
}

func (s *TicketLifecycle) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	return ticket, nil
}

func (s *TicketLifecycle) publish(ctx context.Context, event events.Event) {
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
