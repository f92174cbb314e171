package models

// Chat turn roles, matching the wire format of OpenAI-compatible
// completion services.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one entry in a conversation session's history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatUsage is the token accounting reported by the completion service.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the outcome of one conversation turn. Usage and CostUSD
// are best-effort: both are omitted entirely when the completion service
// does not report token usage.
type ChatResult struct {
	Reply   string     `json:"reply"`
	Usage   *ChatUsage `json:"usage,omitempty"`
	CostUSD *float64   `json:"cost_usd,omitempty"`
}

// ChatRequest is the input for one conversation turn. A new SessionID
// lazily creates a fresh session; Context is only honored on the first
// turn of a session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Context   string `json:"context"`
}

// Validate checks the required chat fields.
func (r *ChatRequest) Validate() error {
	if r.SessionID == "" {
		return NewValidationError("session_id")
	}
	if r.Message == "" {
		return NewValidationError("message")
	}
	return nil
}

// ResetRequest identifies a session to discard.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}
