package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// In-memory implementations of the repository interfaces. They back the
// service when no POSTGRES_DSN is configured and give tests deterministic,
// parallel-safe stores with the same read-your-writes contract as Postgres.
// Absent records surface as pgx.ErrNoRows so callers map errors uniformly.

// MemoryTicketRepository stores tickets in a map guarded by a mutex. The
// display-id sequence is an atomic counter independent of the records, so
// concurrent creations never observe the same value.
type MemoryTicketRepository struct {
	mu         sync.RWMutex
	tickets    map[string]domain.Ticket
	displaySeq atomic.Int64
}

// NewMemoryTicketRepository builds an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]domain.Ticket)}
}

func (r *MemoryTicketRepository) NextDisplayID(_ context.Context) (int64, error) {
	return r.displaySeq.Add(1), nil
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *MemoryTicketRepository) Save(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := cloneTicket(ticket)
	return &clone, nil
}

func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryTicketRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tickets)), nil
}

func (r *MemoryTicketRepository) CountByStatus(_ context.Context, status domain.TicketStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, ticket := range r.tickets {
		if ticket.Status == status {
			count++
		}
	}
	return count, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func cloneTicket(ticket domain.Ticket) domain.Ticket {
	ticket.Customer = nil
	ticket.Notes = nil
	return ticket
}

// MemoryNoteRepository keeps ordered per-ticket note slices. Append only
// ever adds, so concurrent appends on the same ticket both survive.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[string][]domain.Note
}

// NewMemoryNoteRepository builds an empty store.
func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{notes: make(map[string][]domain.Note)}
}

func (r *MemoryNoteRepository) Append(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	clone := *note
	clone.Author = nil
	r.notes[note.TicketID] = append(r.notes[note.TicketID], clone)
	return nil
}

func (r *MemoryNoteRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.notes[ticketID]
	result := make([]domain.Note, len(stored))
	copy(result, stored)
	return result, nil
}

// MemoryUserRepository stores accounts keyed by id with an email index.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
}

// NewMemoryUserRepository builds an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if existing.Email != user.Email {
		delete(r.byEmail, existing.Email)
		r.byEmail[user.Email] = user.ID
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := r.users[id]
	return &user, nil
}

func (r *MemoryUserRepository) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.User
	for _, user := range r.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *MemoryUserRepository) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// MemoryPasswordResetRepository stores reset tokens keyed by token string.
type MemoryPasswordResetRepository struct {
	mu     sync.Mutex
	tokens map[string]PasswordResetToken
}

// NewMemoryPasswordResetRepository builds an empty store.
func NewMemoryPasswordResetRepository() *MemoryPasswordResetRepository {
	return &MemoryPasswordResetRepository{tokens: make(map[string]PasswordResetToken)}
}

func (r *MemoryPasswordResetRepository) Create(_ context.Context, token *PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *MemoryPasswordResetRepository) GetByToken(_ context.Context, tokenStr string) (*PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &token, nil
}

func (r *MemoryPasswordResetRepository) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			r.tokens[key] = token
			return nil
		}
	}
	return pgx.ErrNoRows
}
