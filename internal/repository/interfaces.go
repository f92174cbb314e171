package repository

import (
	"context"

	"github.com/amail-io/amail-ce/internal/models"
)

// TicketRepository defines the store adapter contract for tickets. The
// adapter is a key-value table keyed by ticket_id with secondary indexes
// for status, assignee and group, each ordered by last_updated_at.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)

	// ApplyPatch applies a normalized update conditionally on the ticket
	// existing, returning the updated record or models.ErrTicketNotFound.
	ApplyPatch(ctx context.Context, id string, update *models.TicketUpdate) (*models.Ticket, error)

	// ApplyMessageAggregate atomically increments message_count and sets
	// last_message_at, last_updated_at and next_action after a message
	// append. Returns models.ErrTicketNotFound when the ticket is absent.
	ApplyMessageAggregate(ctx context.Context, id string, now string, next models.NextAction) error

	// Listing queries, each backed by a distinct secondary ordering and
	// returning tickets sorted by last_updated_at descending.
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Ticket, error)
	ListByAssignee(ctx context.Context, assignedTo string) ([]*models.Ticket, error)
	ListByGroup(ctx context.Context, ticketGroup string) ([]*models.Ticket, error)
	ListAll(ctx context.Context) ([]*models.Ticket, error)
}

// MessageRepository defines the store adapter contract for the append-only
// message log keyed by (ticket_id, message_sort_key).
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]*models.Message, error)

	// Remove deletes a single message. It exists solely so the thread
	// manager can compensate an append whose owning ticket turned out not
	// to exist; committed messages are never removed.
	Remove(ctx context.Context, ticketID, sortKey string) error
}

// SessionRepository backs the conversation session manager's per-session
// turn history. Get returns a nil slice for an unknown session; Delete is
// idempotent.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) ([]models.ChatTurn, error)
	Save(ctx context.Context, sessionID string, turns []models.ChatTurn) error
	Delete(ctx context.Context, sessionID string) error
}
