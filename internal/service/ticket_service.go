package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/amail-io/amail-ce/internal/models"
	"github.com/amail-io/amail-ce/internal/repository"
)

// TicketService is the ticket lifecycle engine: it creates tickets,
// validates and applies status and assignment transitions, and derives
// next_action.
type TicketService struct {
	tickets  repository.TicketRepository
	messages *MessageService

	// strictStatus enforces the closed four-value status enum on
	// updates. When off, any status string is accepted and upper-cased,
	// preserving the permissive legacy behavior.
	strictStatus bool
}

// NewTicketService creates the lifecycle engine.
func NewTicketService(tickets repository.TicketRepository, messages *MessageService, strictStatus bool) *TicketService {
	return &TicketService{
		tickets:      tickets,
		messages:     messages,
		strictStatus: strictStatus,
	}
}

// newTicketID allocates a globally unique, immutable ticket identifier.
func newTicketID() string {
	return "TICKET-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

// Create validates the request and persists a new ticket. A non-empty
// initial message is appended through the thread manager, which sets
// message_count to 1 and recomputes next_action.
func (s *TicketService) Create(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := models.NowTimestamp()
	ticket := &models.Ticket{
		TicketID:      newTicketID(),
		Subject:       req.Subject,
		Status:        models.StatusOpen,
		AssignedTo:    models.Unassigned,
		Priority:      req.Priority,
		Category:      req.Category,
		Channel:       req.Channel,
		TicketGroup:   req.TicketGroup,
		Client:        req.Client,
		MessageCount:  0,
		NextAction:    models.NextActionAgent,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	slog.Info("ticket created",
		"ticket_id", ticket.TicketID,
		"ticket_group", ticket.TicketGroup,
		"priority", ticket.Priority)

	if req.InitialMessage == "" {
		return ticket, nil
	}

	if _, err := s.messages.Append(ctx, ticket.TicketID, &models.AppendMessageRequest{
		Text:          req.InitialMessage,
		CreatedByType: string(models.SenderClient),
		CreatedByID:   req.Client.Email,
		CreatedSource: req.Channel,
	}); err != nil {
		return nil, fmt.Errorf("append initial message to %s: %w", ticket.TicketID, err)
	}

	// Re-read so the response reflects the aggregate side effect of the
	// initial message.
	created, err := s.tickets.GetByID(ctx, ticket.TicketID)
	if err != nil {
		return nil, fmt.Errorf("reload ticket %s: %w", ticket.TicketID, err)
	}
	return created, nil
}

// Get retrieves a single ticket.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// Update applies a whitelisted patch to a ticket. last_updated_at is
// always bumped regardless of which fields changed; a transition into
// RESOLVED stamps resolved_at unconditionally, so re-resolving overwrites
// the earlier timestamp.
func (s *TicketService) Update(ctx context.Context, ticketID string, patch *models.TicketPatch) (*models.Ticket, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, &models.ValidationError{Field: "patch", Reason: "no valid fields to update"}
	}

	update := &models.TicketUpdate{
		Patch:     *patch,
		UpdatedAt: models.NowTimestamp(),
	}

	if patch.Status != nil {
		status, known := models.ParseStatus(*patch.Status)
		if s.strictStatus && !known {
			return nil, &models.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("unknown status %q", *patch.Status),
			}
		}
		normalized := string(status)
		update.Patch.Status = &normalized
		if status == models.StatusResolved {
			update.ResolvedAt = &update.UpdatedAt
		}
	}

	if patch.NextAction != nil {
		next, ok := models.ParseNextAction(*patch.NextAction)
		if !ok {
			return nil, &models.ValidationError{
				Field:  "next_action",
				Reason: fmt.Sprintf("unknown next_action %q", *patch.NextAction),
			}
		}
		normalized := string(next)
		update.Patch.NextAction = &normalized
	}

	ticket, err := s.tickets.ApplyPatch(ctx, ticketID, update)
	if err != nil {
		return nil, err
	}
	slog.Info("ticket updated", "ticket_id", ticketID, "status", ticket.Status)
	return ticket, nil
}

// List returns tickets sorted by last_updated_at descending. At most one
// filter is honored; when several are supplied the first in the order
// status, assigned_to, ticket_group wins. Each filter maps to a distinct
// secondary ordering, so this selection rule is part of the observable
// contract.
func (s *TicketService) List(ctx context.Context, filter models.TicketFilter) ([]*models.Ticket, error) {
	switch {
	case filter.Status != "":
		status, _ := models.ParseStatus(filter.Status)
		return s.tickets.ListByStatus(ctx, status)
	case filter.AssignedTo != "":
		return s.tickets.ListByAssignee(ctx, filter.AssignedTo)
	case filter.TicketGroup != "":
		return s.tickets.ListByGroup(ctx, filter.TicketGroup)
	default:
		return s.tickets.ListAll(ctx)
	}
}
