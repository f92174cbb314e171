package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amail-io/amail-ce/internal/models"
	"github.com/amail-io/amail-ce/internal/repository"
)

func agentMessage(text string) *models.AppendMessageRequest {
	return &models.AppendMessageRequest{
		Text:          text,
		CreatedByType: "AGENT",
		CreatedByID:   "agent1",
		CreatedSource: "Internal CRM",
	}
}

func clientMessage(text string) *models.AppendMessageRequest {
	return &models.AppendMessageRequest{
		Text:          text,
		CreatedByType: "client",
		CreatedByID:   "a@b.com",
		CreatedSource: "Website Form",
	}
}

func TestMessageServiceAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("CountAndNextAction", func(t *testing.T) {
		ticketSvc, msgSvc := newTicketFixture(t, true)
		ticket, err := ticketSvc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		// Whoever did NOT just speak is responsible for the next move.
		steps := []struct {
			req  *models.AppendMessageRequest
			next models.NextAction
		}{
			{clientMessage("help"), models.NextActionAgent},
			{agentMessage("on it"), models.NextActionClient},
			{agentMessage("any update?"), models.NextActionClient},
			{clientMessage("still broken"), models.NextActionAgent},
		}
		for i, step := range steps {
			_, err := msgSvc.Append(ctx, ticket.TicketID, step.req)
			require.NoError(t, err)

			current, err := ticketSvc.Get(ctx, ticket.TicketID)
			require.NoError(t, err)
			assert.Equal(t, i+1, current.MessageCount)
			assert.Equal(t, step.next, current.NextAction)
			assert.NotNil(t, current.LastMessageAt)
			assert.Equal(t, *current.LastMessageAt, current.LastUpdatedAt)
		}
	})

	t.Run("ReturnsPersistedMessage", func(t *testing.T) {
		ticketSvc, msgSvc := newTicketFixture(t, true)
		ticket, err := ticketSvc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		msg, err := msgSvc.Append(ctx, ticket.TicketID, clientMessage("help"))
		require.NoError(t, err)
		assert.Equal(t, ticket.TicketID, msg.TicketID)
		assert.Equal(t, models.SenderClient, msg.CreatedByType)
		assert.Equal(t, msg.CreatedAt+"#"+msg.MessageID, msg.SortKey)
		assert.NotNil(t, msg.Attachments)
	})

	t.Run("TicketNotFoundCompensatesMessage", func(t *testing.T) {
		tickets := repository.NewMemoryTicketRepository()
		messages := repository.NewMemoryMessageRepository()
		msgSvc := NewMessageService(messages, tickets)
		msgSvc.retryDelay = 0

		_, err := msgSvc.Append(ctx, "TICKET-MISSING", clientMessage("hello?"))
		assert.ErrorIs(t, err, models.ErrTicketNotFound)

		// The orphan write must not survive.
		left, err := msgSvc.List(ctx, "TICKET-MISSING")
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		ticketSvc, msgSvc := newTicketFixture(t, true)
		ticket, err := ticketSvc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		req := clientMessage("")
		_, err = msgSvc.Append(ctx, ticket.TicketID, req)
		assert.True(t, models.IsValidation(err))

		current, err := ticketSvc.Get(ctx, ticket.TicketID)
		require.NoError(t, err)
		assert.Equal(t, 0, current.MessageCount)
	})

	t.Run("AggregateFailureDoesNotFailAppend", func(t *testing.T) {
		tickets := &flakyTicketRepo{TicketRepository: repository.NewMemoryTicketRepository()}
		messages := repository.NewMemoryMessageRepository()
		msgSvc := NewMessageService(messages, tickets)
		msgSvc.retryDelay = 0

		require.NoError(t, tickets.Create(ctx, &models.Ticket{
			TicketID:      "TICKET-FLAKY",
			Status:        models.StatusOpen,
			CreatedAt:     models.NowTimestamp(),
			LastUpdatedAt: models.NowTimestamp(),
		}))
		tickets.failAggregates = true

		msg, err := msgSvc.Append(ctx, "TICKET-FLAKY", clientMessage("help"))
		require.NoError(t, err, "an exhausted aggregate retry is logged, not surfaced")
		require.NotNil(t, msg)
		assert.Equal(t, aggregateRetries, tickets.aggregateCalls)

		// The message itself is committed even though the counters are
		// stale.
		msgs, err := msgSvc.List(ctx, "TICKET-FLAKY")
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	})
}

// flakyTicketRepo fails aggregate updates on demand to exercise the
// retry and divergence paths.
type flakyTicketRepo struct {
	repository.TicketRepository
	failAggregates bool
	aggregateCalls int
}

func (r *flakyTicketRepo) ApplyMessageAggregate(ctx context.Context, id string, now string, next models.NextAction) error {
	r.aggregateCalls++
	if r.failAggregates {
		return &models.UpstreamError{Service: "store", Retryable: true, Err: errors.New("throttled")}
	}
	return r.TicketRepository.ApplyMessageAggregate(ctx, id, now, next)
}

func TestMessageServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("ChronologicalOrder", func(t *testing.T) {
		ticketSvc, msgSvc := newTicketFixture(t, true)
		ticket, err := ticketSvc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			req := clientMessage("msg")
			if i%2 == 0 {
				req = agentMessage("msg")
			}
			_, err := msgSvc.Append(ctx, ticket.TicketID, req)
			require.NoError(t, err)
		}

		msgs, err := msgSvc.List(ctx, ticket.TicketID)
		require.NoError(t, err)
		require.Len(t, msgs, 10)
		assert.True(t, sort.SliceIsSorted(msgs, func(i, j int) bool {
			return msgs[i].SortKey < msgs[j].SortKey
		}))
		for i := 1; i < len(msgs); i++ {
			assert.Less(t, msgs[i-1].SortKey, msgs[i].SortKey, "sort keys must be strictly increasing")
		}
	})

	t.Run("EmptyThread", func(t *testing.T) {
		ticketSvc, msgSvc := newTicketFixture(t, true)
		ticket, err := ticketSvc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		msgs, err := msgSvc.List(ctx, ticket.TicketID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("BlankTicketID", func(t *testing.T) {
		_, msgSvc := newTicketFixture(t, true)
		_, err := msgSvc.List(ctx, "  ")
		assert.True(t, models.IsValidation(err))
	})
}
