package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type fixture struct {
	lifecycle *TicketLifecycle
	thread    *NoteThread
	tickets   *repository.MemoryTicketRepository
	users     *repository.MemoryUserRepository

	customer1 *domain.User
	customer2 *domain.User
	agent     *domain.User
	admin     *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tickets := repository.NewMemoryTicketRepository()
	notes := repository.NewMemoryNoteRepository()
	users := repository.NewMemoryUserRepository()

	f := &fixture{
		lifecycle: NewTicketLifecycle(LifecycleDependencies{
			TicketRepo: tickets,
			NoteRepo:   notes,
			UserRepo:   users,
		}),
		thread: NewNoteThread(ThreadDependencies{
			TicketRepo: tickets,
			NoteRepo:   notes,
			UserRepo:   users,
		}),
		tickets: tickets,
		users:   users,
	}

	ctx := context.Background()
	f.customer1 = seedUser(t, ctx, users, "Carla Doe", "carla@example.com", domain.RoleCustomer)
	f.customer2 = seedUser(t, ctx, users, "Chris Roe", "chris@example.com", domain.RoleCustomer)
	f.agent = seedUser(t, ctx, users, "Avery Smith", "avery@example.com", domain.RoleAgent)
	f.admin = seedUser(t, ctx, users, "Ada Jones", "ada@example.com", domain.RoleAdmin)
	return f
}

func seedUser(t *testing.T, ctx context.Context, users *repository.MemoryUserRepository, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: role}
	require.NoError(t, users.Create(ctx, user))
	return user
}

func TestCreateAsCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{
		Title:       "Can't log in",
		InitialNote: "Happens on Chrome",
	})
	require.NoError(t, err)

	assert.Equal(t, "TKT-001", ticket.DisplayID)
	assert.Equal(t, domain.TicketStatusActive, ticket.Status)
	assert.Equal(t, f.customer1.ID, ticket.CustomerID)
	require.NotNil(t, ticket.Customer)
	assert.Equal(t, f.customer1.Email, ticket.Customer.Email)
	require.Len(t, ticket.Notes, 1)
	assert.Equal(t, "Happens on Chrome", ticket.Notes[0].Text)
	assert.Equal(t, f.customer1.ID, ticket.Notes[0].AuthorID)
	assert.Equal(t, domain.RoleCustomer, ticket.Notes[0].AuthorRole)
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)
}

func TestCreateIgnoresCustomerIDFromCustomer(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.lifecycle.Create(context.Background(), f.customer1, TicketCreateInput{
		Title:      "Printer on fire",
		CustomerID: f.customer2.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, f.customer1.ID, ticket.CustomerID)
	assert.Empty(t, ticket.Notes)
}

func TestCreateAsAgentForCustomer(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.lifecycle.Create(context.Background(), f.agent, TicketCreateInput{
		Title:       "Phoned in: slow dashboard",
		InitialNote: "Customer reports 30s page loads",
		CustomerID:  f.customer1.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, f.customer1.ID, ticket.CustomerID)
	// The note is authored by the agent, not the owning customer.
	require.Len(t, ticket.Notes, 1)
	assert.Equal(t, f.agent.ID, ticket.Notes[0].AuthorID)
	assert.Equal(t, domain.RoleAgent, ticket.Notes[0].AuthorRole)
}

func TestCreateAsAgentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"missing customer id", TicketCreateInput{Title: "t"}},
		{"unknown customer id", TicketCreateInput{Title: "t", CustomerID: "no-such-user"}},
		{"customer id is staff", TicketCreateInput{Title: "t", CustomerID: f.admin.ID}},
		{"blank title", TicketCreateInput{Title: "   ", CustomerID: f.customer1.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before, err := f.tickets.Count(ctx)
			require.NoError(t, err)

			_, err = f.lifecycle.Create(ctx, f.agent, tc.input)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)

			after, err := f.tickets.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after, "no ticket may be persisted on validation failure")
		})
	}
}

func TestDisplayIDsSequentialAndUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: fmt.Sprintf("issue %d", i)})
		require.NoError(t, err)
		assert.Equal(t, domain.FormatDisplayID(int64(i)), ticket.DisplayID)
	}
}

func TestDisplayIDsUniqueUnderConcurrentCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: fmt.Sprintf("race %d", i)})
			if err == nil {
				results <- ticket.DisplayID
			}
		}(i)
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for id := range results {
		assert.False(t, seen[id], "duplicate display id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSetStatusByAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "stuck order"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	updated, err := f.lifecycle.SetStatus(ctx, f.agent, ticket.ID, "Closed")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	assert.True(t, updated.UpdatedAt.After(ticket.UpdatedAt), "updatedAt must advance on status change")

	// No terminal state: Closed can move back to Active.
	reopened, err := f.lifecycle.SetStatus(ctx, f.admin, ticket.ID, "Active")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, reopened.Status)
}

func TestSetStatusDeniedForCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "own ticket"})
	require.NoError(t, err)

	_, err = f.lifecycle.SetStatus(ctx, f.customer1, ticket.ID, "Closed")
	assert.True(t, apperrors.IsForbidden(err), "customers may never change status, got %v", err)

	// Denial must leave the ticket untouched.
	reread, err := f.lifecycle.Get(ctx, f.customer1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, reread.Status)
	assert.Equal(t, ticket.UpdatedAt, reread.UpdatedAt)
}

func TestSetStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	_, err = f.lifecycle.SetStatus(ctx, f.agent, ticket.ID, "Resolved")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.lifecycle.SetStatus(ctx, f.agent, "missing-id", "Closed")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "private matter"})
	require.NoError(t, err)

	_, err = f.lifecycle.Get(ctx, f.customer2, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))

	got, err := f.lifecycle.Get(ctx, f.customer1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, err = f.lifecycle.Get(ctx, f.agent, ticket.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.Get(ctx, f.agent, "missing-id")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetDenialHidesExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "private matter"})
	require.NoError(t, err)

	// A customer gets the identical denial for a foreign ticket and for an
	// id that matches nothing, so the error code cannot confirm existence.
	_, existingErr := f.lifecycle.Get(ctx, f.customer2, ticket.ID)
	_, missingErr := f.lifecycle.Get(ctx, f.customer2, "no-such-ticket")

	assert.True(t, apperrors.IsForbidden(existingErr))
	assert.True(t, apperrors.IsForbidden(missingErr))
	assert.False(t, apperrors.IsNotFound(missingErr))
	assert.Equal(t, existingErr.Error(), missingErr.Error())

	// Staff scope is unrestricted, so an absent ticket stays a lookup miss.
	_, err = f.lifecycle.Get(ctx, f.admin, "no-such-ticket")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "c1 first"})
	require.NoError(t, err)
	_, err = f.lifecycle.Create(ctx, f.customer2, TicketCreateInput{Title: "c2 only"})
	require.NoError(t, err)
	_, err = f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "c1 second"})
	require.NoError(t, err)

	own, err := f.lifecycle.List(ctx, f.customer1, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, ticket := range own {
		assert.Equal(t, f.customer1.ID, ticket.CustomerID)
		require.NotNil(t, ticket.Customer)
	}

	all, err := f.lifecycle.List(ctx, f.agent, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket1, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = f.lifecycle.Create(ctx, f.customer2, TicketCreateInput{Title: "b"})
	require.NoError(t, err)
	_, err = f.lifecycle.SetStatus(ctx, f.agent, ticket1.ID, "Pending")
	require.NoError(t, err)

	_, err = f.lifecycle.Stats(ctx, f.customer1)
	assert.True(t, apperrors.IsForbidden(err))
	_, err = f.lifecycle.Stats(ctx, f.agent)
	assert.True(t, apperrors.IsForbidden(err))

	stats, err := f.lifecycle.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalTickets)
	assert.Equal(t, int64(1), stats.ActiveTickets)
	assert.Equal(t, int64(1), stats.PendingTickets)
	assert.Equal(t, int64(0), stats.ClosedTickets)
	assert.Equal(t, int64(2), stats.TotalCustomers)
}

func TestEndToEndCustomerAndAgentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{
		Title:       "Can't log in",
		InitialNote: "Happens on Chrome",
	})
	require.NoError(t, err)
	require.Equal(t, "TKT-001", ticket.DisplayID)
	require.Equal(t, domain.TicketStatusActive, ticket.Status)
	require.Len(t, ticket.Notes, 1)
	require.Equal(t, f.customer1.ID, ticket.Notes[0].AuthorID)

	time.Sleep(5 * time.Millisecond)
	closed, err := f.lifecycle.SetStatus(ctx, f.agent, ticket.ID, "Closed")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.True(t, closed.UpdatedAt.After(ticket.UpdatedAt))

	_, err = f.lifecycle.Get(ctx, f.customer2, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))
}
