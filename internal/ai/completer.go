// Package ai provides the text-completion client used by the
// conversation session manager. The service behind it is treated as an
// opaque OpenAI-compatible chat-completions endpoint.
package ai

import (
	"context"

	"github.com/amail-io/amail-ce/internal/models"
)

// Completion is the result of one completion call. Usage is nil when the
// service does not report token accounting.
type Completion struct {
	Content string
	Usage   *models.ChatUsage
}

// Completer turns an ordered list of chat turns into an assistant reply.
type Completer interface {
	Complete(ctx context.Context, turns []models.ChatTurn) (*Completion, error)
}
