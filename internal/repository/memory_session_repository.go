package repository

import (
	"context"
	"sync"

	"github.com/amail-io/amail-ce/internal/models"
)

// MemorySessionRepository keeps conversation histories in process memory.
// Suitable for single-instance deployments only; multi-instance setups
// need the Redis-backed implementation so sessions are shared.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string][]models.ChatTurn
}

// NewMemorySessionRepository creates an empty in-memory session store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string][]models.ChatTurn),
	}
}

// Get returns the session's turns, or nil if the session does not exist.
func (r *MemorySessionRepository) Get(_ context.Context, sessionID string) ([]models.ChatTurn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	turns, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]models.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// Save replaces the session's turn history.
func (r *MemorySessionRepository) Save(_ context.Context, sessionID string, turns []models.ChatTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]models.ChatTurn, len(turns))
	copy(stored, turns)
	r.sessions[sessionID] = stored
	return nil
}

// Delete discards the session. Deleting an absent session is a no-op.
func (r *MemorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
