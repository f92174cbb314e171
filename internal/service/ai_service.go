package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/amail-io/amail-ce/internal/ai"
	"github.com/amail-io/amail-ce/internal/metrics"
	"github.com/amail-io/amail-ce/internal/models"
	"github.com/amail-io/amail-ce/internal/repository"
)

// maxSessionTurns caps a session's retained history. When the history
// grows past the cap, the system turn (if present) plus the most recent
// maxSessionTurns-1 turns survive; older turns are discarded for good.
const maxSessionTurns = 20

const systemPreamble = "You are an AI assistant helping with customer service responses. " +
	"Use the provided context to give helpful, professional responses."

// AIConfig carries the tunables of the conversation session manager.
// Prices are USD per 1000 tokens.
type AIConfig struct {
	PriceInPer1K  float64
	PriceOutPer1K float64
}

// AIService is the conversation session manager. It keeps a bounded
// per-session turn history in an injectable session store and feeds it to
// the completion service. Concurrent calls on one session are serialized
// by a per-session lock; the histories of different sessions never block
// each other.
type AIService struct {
	sessions  repository.SessionRepository
	completer ai.Completer
	cfg       AIConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAIService creates the session manager with the given backing store
// and completion client.
func NewAIService(sessions repository.SessionRepository, completer ai.Completer, cfg AIConfig) *AIService {
	return &AIService{
		sessions:  sessions,
		completer: completer,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *AIService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// Chat runs one conversation turn. On the first turn of a session a
// supplied system context is prepended once, combined with a fixed role
// preamble; later calls never re-inject it. The full history goes to the
// completion service, the assistant reply is appended, and the history is
// pruned to the turn cap.
func (s *AIService) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lock := s.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	turns, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if len(turns) == 0 && req.Context != "" {
		turns = append(turns, models.ChatTurn{
			Role:    models.RoleSystem,
			Content: fmt.Sprintf("Context: %s\n\n%s", req.Context, systemPreamble),
		})
	}
	turns = append(turns, models.ChatTurn{Role: models.RoleUser, Content: req.Message})

	completion, err := s.completer.Complete(ctx, turns)
	if err != nil {
		// Surfaced as a typed upstream failure, never a silent empty
		// reply.
		return nil, err
	}

	turns = append(turns, models.ChatTurn{Role: models.RoleAssistant, Content: completion.Content})
	turns = pruneTurns(turns)

	if err := s.sessions.Save(ctx, req.SessionID, turns); err != nil {
		return nil, err
	}

	result := &models.ChatResult{Reply: completion.Content}
	if completion.Usage != nil {
		usage := *completion.Usage
		cost := (float64(usage.PromptTokens)*s.cfg.PriceInPer1K +
			float64(usage.CompletionTokens)*s.cfg.PriceOutPer1K) / 1000.0
		cost = math.Round(cost*1e6) / 1e6
		result.Usage = &usage
		result.CostUSD = &cost

		metrics.CompletionTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
		metrics.CompletionTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
		metrics.CompletionCostUSD.Add(cost)
	}

	slog.Info("chat turn completed",
		"session_id", req.SessionID,
		"history_len", len(turns),
		"usage_reported", completion.Usage != nil)
	return result, nil
}

// Reset discards a session's history entirely. Resetting an absent
// session is a no-op.
func (s *AIService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return models.NewValidationError("session_id")
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()
	return nil
}

// pruneTurns enforces the turn cap, always keeping a leading system turn
// at position 0.
func pruneTurns(turns []models.ChatTurn) []models.ChatTurn {
	if len(turns) <= maxSessionTurns {
		return turns
	}
	pruned := make([]models.ChatTurn, 0, maxSessionTurns)
	if turns[0].Role == models.RoleSystem {
		pruned = append(pruned, turns[0])
	}
	return append(pruned, turns[len(turns)-(maxSessionTurns-1):]...)
}
