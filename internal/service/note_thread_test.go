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
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

func TestAppendNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "broken export"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	updated, err := f.thread.Append(ctx, f.customer1, ticket.ID, "still failing today", nil)
	require.NoError(t, err)

	require.Len(t, updated.Notes, 1)
	note := updated.Notes[0]
	assert.Equal(t, "still failing today", note.Text)
	assert.Equal(t, f.customer1.ID, note.AuthorID)
	assert.Equal(t, domain.RoleCustomer, note.AuthorRole)
	assert.Nil(t, note.AttachmentRef)
	assert.False(t, updated.UpdatedAt.Before(ticket.UpdatedAt), "updatedAt must not move backwards")
	assert.True(t, updated.UpdatedAt.After(ticket.UpdatedAt))
}

func TestAppendGrowsThreadByOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t", InitialNote: "first"})
	require.NoError(t, err)

	for i := 2; i <= 4; i++ {
		updated, err := f.thread.Append(ctx, f.agent, ticket.ID, fmt.Sprintf("reply %d", i), nil)
		require.NoError(t, err)
		assert.Len(t, updated.Notes, i)
	}
}

func TestAppendPreservesOrderAndAuthors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t", InitialNote: "customer opened"})
	require.NoError(t, err)

	_, err = f.thread.Append(ctx, f.agent, ticket.ID, "agent reply", nil)
	require.NoError(t, err)
	updated, err := f.thread.Append(ctx, f.customer1, ticket.ID, "customer followup", nil)
	require.NoError(t, err)

	require.Len(t, updated.Notes, 3)
	assert.Equal(t, "customer opened", updated.Notes[0].Text)
	assert.Equal(t, "agent reply", updated.Notes[1].Text)
	assert.Equal(t, "customer followup", updated.Notes[2].Text)
	assert.Equal(t, domain.RoleAgent, updated.Notes[1].AuthorRole)
	require.NotNil(t, updated.Notes[1].Author)
	assert.Equal(t, f.agent.Name, updated.Notes[1].Author.Name)
}

func TestAppendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	_, err = f.thread.Append(ctx, f.customer1, ticket.ID, "   ", nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.thread.Append(ctx, f.agent, "missing-id", "hello", nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAppendDeniedOnForeignTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	_, err = f.thread.Append(ctx, f.customer2, ticket.ID, "let me in", nil)
	assert.True(t, apperrors.IsForbidden(err))

	// Staff may respond on any ticket.
	_, err = f.thread.Append(ctx, f.agent, ticket.ID, "on it", nil)
	require.NoError(t, err)
	_, err = f.thread.Append(ctx, f.admin, ticket.ID, "escalated", nil)
	require.NoError(t, err)
}

func TestAppendDenialHidesExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	// A customer gets the identical denial for a foreign ticket and for an
	// id that matches nothing, so the error code cannot confirm existence.
	_, existingErr := f.thread.Append(ctx, f.customer2, ticket.ID, "hello", nil)
	_, missingErr := f.thread.Append(ctx, f.customer2, "no-such-ticket", "hello", nil)

	assert.True(t, apperrors.IsForbidden(existingErr))
	assert.True(t, apperrors.IsForbidden(missingErr))
	assert.False(t, apperrors.IsNotFound(missingErr))
	assert.Equal(t, existingErr.Error(), missingErr.Error())
}

func TestAppendEchoesAttachmentRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	ref := "/uploads/abc-screenshot.png"
	updated, err := f.thread.Append(ctx, f.customer1, ticket.ID, "see attached", &ref)
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)
	require.NotNil(t, updated.Notes[0].AttachmentRef)
	assert.Equal(t, ref, *updated.Notes[0].AttachmentRef)
}

func TestConcurrentAppendsAllSurvive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.lifecycle.Create(ctx, f.customer1, TicketCreateInput{Title: "busy thread"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.thread.Append(ctx, f.agent, ticket.ID, fmt.Sprintf("concurrent %d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := f.lifecycle.Get(ctx, f.agent, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, final.Notes, n, "every concurrent append must survive")
}
