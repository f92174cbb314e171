package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amail-io/amail-ce/internal/models"
	"github.com/amail-io/amail-ce/internal/repository"
)

func newTicketFixture(t *testing.T, strictStatus bool) (*TicketService, *MessageService) {
	t.Helper()
	tickets := repository.NewMemoryTicketRepository()
	messages := repository.NewMemoryMessageRepository()
	messageSvc := NewMessageService(messages, tickets)
	messageSvc.retryDelay = 0
	return NewTicketService(tickets, messageSvc, strictStatus), messageSvc
}

func validCreateRequest() *models.CreateTicketRequest {
	return &models.CreateTicketRequest{
		Subject:     "X",
		Client:      models.Client{FirstName: "A", LastName: "B", Email: "a@b.com"},
		Channel:     "Web",
		TicketGroup: "Ops",
	}
}

func TestTicketServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		assert.Contains(t, ticket.TicketID, "TICKET-")
		assert.Equal(t, models.StatusOpen, ticket.Status)
		assert.Equal(t, models.Unassigned, ticket.AssignedTo)
		assert.Equal(t, models.PriorityMedium, ticket.Priority)
		assert.Equal(t, "other", ticket.Category)
		assert.Equal(t, models.NextActionAgent, ticket.NextAction)
		assert.Equal(t, 0, ticket.MessageCount)
		assert.Nil(t, ticket.LastMessageAt)
		assert.Nil(t, ticket.ResolvedAt)
		assert.Equal(t, ticket.CreatedAt, ticket.LastUpdatedAt)
	})

	t.Run("WithInitialMessage", func(t *testing.T) {
		svc, msgSvc := newTicketFixture(t, true)
		req := validCreateRequest()
		req.InitialMessage = "help"
		ticket, err := svc.Create(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, 1, ticket.MessageCount)
		assert.NotNil(t, ticket.LastMessageAt)
		assert.Equal(t, models.NextActionAgent, ticket.NextAction)

		msgs, err := msgSvc.List(ctx, ticket.TicketID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "help", msgs[0].Text)
		assert.Equal(t, models.SenderClient, msgs[0].CreatedByType)
		assert.Equal(t, "a@b.com", msgs[0].CreatedByID)
		assert.Equal(t, "Web", msgs[0].CreatedSource)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		req := validCreateRequest()
		req.Subject = ""
		_, err := svc.Create(ctx, req)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			ticket, err := svc.Create(ctx, validCreateRequest())
			require.NoError(t, err)
			assert.False(t, seen[ticket.TicketID])
			seen[ticket.TicketID] = true
		}
	})
}

func TestTicketServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyPatch", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)
		_, err = svc.Update(ctx, ticket.TicketID, &models.TicketPatch{})
		assert.True(t, models.IsValidation(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		status := "OPEN"
		_, err := svc.Update(ctx, "TICKET-MISSING", &models.TicketPatch{Status: &status})
		assert.ErrorIs(t, err, models.ErrTicketNotFound)
	})

	t.Run("StatusUpperCased", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		status := "in_progress"
		time.Sleep(time.Millisecond)
		updated, err := svc.Update(ctx, ticket.TicketID, &models.TicketPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, updated.Status)
		assert.Greater(t, updated.LastUpdatedAt, ticket.LastUpdatedAt)
	})

	t.Run("StrictStatusRejectsUnknown", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		status := "escalated"
		_, err = svc.Update(ctx, ticket.TicketID, &models.TicketPatch{Status: &status})
		assert.True(t, models.IsValidation(err))
	})

	t.Run("PermissiveStatusAcceptsAnyString", func(t *testing.T) {
		svc, _ := newTicketFixture(t, false)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		status := "escalated"
		updated, err := svc.Update(ctx, ticket.TicketID, &models.TicketPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.Status("ESCALATED"), updated.Status)
	})

	t.Run("ResolveSetsResolvedAt", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		status := "resolved"
		first, err := svc.Update(ctx, ticket.TicketID, &models.TicketPatch{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, first.ResolvedAt)
		assert.Equal(t, models.StatusResolved, first.Status)

		// Re-resolving overwrites the timestamp; this non-idempotence is
		// part of the documented behavior.
		time.Sleep(time.Millisecond)
		second, err := svc.Update(ctx, ticket.TicketID, &models.TicketPatch{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, second.ResolvedAt)
		assert.Greater(t, *second.ResolvedAt, *first.ResolvedAt)
	})

	t.Run("ExplicitEmptyAssigneeClears", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		bob := "bob"
		updated, err := svc.Update(ctx, ticket.TicketID, &models.TicketPatch{AssignedTo: &bob})
		require.NoError(t, err)
		assert.Equal(t, "bob", updated.AssignedTo)

		empty := ""
		updated, err = svc.Update(ctx, ticket.TicketID, &models.TicketPatch{AssignedTo: &empty})
		require.NoError(t, err)
		assert.Equal(t, "", updated.AssignedTo)

		// Absent field leaves the assignee untouched.
		prio := models.PriorityHigh
		updated, err = svc.Update(ctx, ticket.TicketID, &models.TicketPatch{Priority: &prio})
		require.NoError(t, err)
		assert.Equal(t, "", updated.AssignedTo)
		assert.Equal(t, models.PriorityHigh, updated.Priority)
	})

	t.Run("NextActionValidated", func(t *testing.T) {
		svc, _ := newTicketFixture(t, true)
		ticket, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		na := "client"
		updated, err := svc.Update(ctx, ticket.TicketID, &models.TicketPatch{NextAction: &na})
		require.NoError(t, err)
		assert.Equal(t, models.NextActionClient, updated.NextAction)

		bad := "nobody"
		_, err = svc.Update(ctx, ticket.TicketID, &models.TicketPatch{NextAction: &bad})
		assert.True(t, models.IsValidation(err))
	})
}

func TestTicketServiceList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTicketFixture(t, true)

	mk := func(group string) *models.Ticket {
		req := validCreateRequest()
		req.TicketGroup = group
		ticket, err := svc.Create(ctx, req)
		require.NoError(t, err)
		return ticket
	}

	mk("Ops")
	second := mk("Ops")
	third := mk("Legal")

	bob := "bob"
	_, err := svc.Update(ctx, second.TicketID, &models.TicketPatch{AssignedTo: &bob})
	require.NoError(t, err)
	status := "resolved"
	_, err = svc.Update(ctx, third.TicketID, &models.TicketPatch{Status: &status})
	require.NoError(t, err)

	t.Run("NoFilterSortedByUpdateDesc", func(t *testing.T) {
		tickets, err := svc.List(ctx, models.TicketFilter{})
		require.NoError(t, err)
		require.Len(t, tickets, 3)
		for i := 1; i < len(tickets); i++ {
			assert.GreaterOrEqual(t, tickets[i-1].LastUpdatedAt, tickets[i].LastUpdatedAt)
		}
	})

	t.Run("StatusFilter", func(t *testing.T) {
		tickets, err := svc.List(ctx, models.TicketFilter{Status: "open"})
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		for _, ticket := range tickets {
			assert.Equal(t, models.StatusOpen, ticket.Status)
		}
	})

	t.Run("StatusWinsOverAssignee", func(t *testing.T) {
		// The filter priority rule: when both are supplied the result
		// must equal the status-only result.
		withBoth, err := svc.List(ctx, models.TicketFilter{Status: "OPEN", AssignedTo: "bob"})
		require.NoError(t, err)
		statusOnly, err := svc.List(ctx, models.TicketFilter{Status: "OPEN"})
		require.NoError(t, err)
		assert.Equal(t, statusOnly, withBoth)
	})

	t.Run("AssigneeFilter", func(t *testing.T) {
		tickets, err := svc.List(ctx, models.TicketFilter{AssignedTo: "bob"})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, second.TicketID, tickets[0].TicketID)
	})

	t.Run("GroupFilter", func(t *testing.T) {
		tickets, err := svc.List(ctx, models.TicketFilter{TicketGroup: "Ops"})
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})
}
