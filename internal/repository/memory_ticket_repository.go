package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/amail-io/amail-ce/internal/models"
)

// MemoryTicketRepository implements TicketRepository with in-memory
// storage. It is used by tests and single-process deployments; production
// uses the DynamoDB implementation.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*models.Ticket
}

// NewMemoryTicketRepository creates an empty in-memory ticket repository.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]*models.Ticket),
	}
}

// Create saves a new ticket.
func (r *MemoryTicketRepository) Create(_ context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.TicketID] = ticket.Clone()
	return nil
}

// GetByID retrieves a ticket by its ID.
func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	return t.Clone(), nil
}

// ApplyPatch applies a normalized update, mirroring the conditional
// update semantics of the DynamoDB adapter.
func (r *MemoryTicketRepository) ApplyPatch(_ context.Context, id string, update *models.TicketUpdate) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	p := update.Patch
	if p.Status != nil {
		t.Status = models.Status(*p.Status)
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.TicketGroup != nil {
		t.TicketGroup = *p.TicketGroup
	}
	if p.NextAction != nil {
		t.NextAction = models.NextAction(*p.NextAction)
	}
	if update.ResolvedAt != nil {
		v := *update.ResolvedAt
		t.ResolvedAt = &v
	}
	t.LastUpdatedAt = update.UpdatedAt
	return t.Clone(), nil
}

// ApplyMessageAggregate updates the derived ticket fields after a message
// append.
func (r *MemoryTicketRepository) ApplyMessageAggregate(_ context.Context, id string, now string, next models.NextAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return models.ErrTicketNotFound
	}
	t.MessageCount++
	ts := now
	t.LastMessageAt = &ts
	t.LastUpdatedAt = now
	t.NextAction = next
	return nil
}

// ListByStatus returns tickets with the given status, newest update first.
func (r *MemoryTicketRepository) ListByStatus(_ context.Context, status models.Status) ([]*models.Ticket, error) {
	return r.list(func(t *models.Ticket) bool { return t.Status == status }), nil
}

// ListByAssignee returns tickets assigned to the given identifier.
func (r *MemoryTicketRepository) ListByAssignee(_ context.Context, assignedTo string) ([]*models.Ticket, error) {
	return r.list(func(t *models.Ticket) bool { return t.AssignedTo == assignedTo }), nil
}

// ListByGroup returns tickets in the given group.
func (r *MemoryTicketRepository) ListByGroup(_ context.Context, ticketGroup string) ([]*models.Ticket, error) {
	return r.list(func(t *models.Ticket) bool { return t.TicketGroup == ticketGroup }), nil
}

// ListAll returns every ticket, newest update first.
func (r *MemoryTicketRepository) ListAll(_ context.Context) ([]*models.Ticket, error) {
	return r.list(func(*models.Ticket) bool { return true }), nil
}

func (r *MemoryTicketRepository) list(match func(*models.Ticket) bool) []*models.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if match(t) {
			out = append(out, t.Clone())
		}
	}
	// last_updated_at strings are fixed-width, so string comparison is
	// chronological comparison.
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdatedAt > out[j].LastUpdatedAt
	})
	return out
}
