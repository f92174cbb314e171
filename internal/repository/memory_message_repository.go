package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/amail-io/amail-ce/internal/models"
)

// MemoryMessageRepository implements MessageRepository with in-memory
// storage for tests and single-process deployments.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string][]*models.Message
}

// NewMemoryMessageRepository creates an empty in-memory message log.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[string][]*models.Message),
	}
}

// Append stores a message under its ticket.
func (r *MemoryMessageRepository) Append(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *msg
	r.messages[msg.TicketID] = append(r.messages[msg.TicketID], &m)
	return nil
}

// ListByTicket returns a ticket's messages in ascending sort-key order.
func (r *MemoryMessageRepository) ListByTicket(_ context.Context, ticketID string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.messages[ticketID]
	out := make([]*models.Message, 0, len(stored))
	for _, m := range stored {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SortKey < out[j].SortKey
	})
	return out, nil
}

// Remove deletes a single message by its composite key.
func (r *MemoryMessageRepository) Remove(_ context.Context, ticketID, sortKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.messages[ticketID]
	for i, m := range stored {
		if m.SortKey == sortKey {
			r.messages[ticketID] = append(stored[:i], stored[i+1:]...)
			return nil
		}
	}
	return nil
}
