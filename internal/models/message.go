package models

import "strings"

// SenderType identifies who authored a message.
type SenderType string

const (
	SenderClient SenderType = "CLIENT"
	SenderAgent  SenderType = "AGENT"
)

// ParseSenderType normalizes a sender type to upper case and reports
// whether it is CLIENT or AGENT.
func ParseSenderType(s string) (SenderType, bool) {
	st := SenderType(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case SenderClient, SenderAgent:
		return st, true
	}
	return st, false
}

// Attachment describes a file attached to a message. The backend treats
// it as opaque and stores it as provided.
type Attachment struct {
	Filename    string `json:"filename" dynamodbav:"filename"`
	ContentType string `json:"content_type,omitempty" dynamodbav:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty" dynamodbav:"size,omitempty"`
	URL         string `json:"url,omitempty" dynamodbav:"url,omitempty"`
}

// Message is one append-only entry in a ticket's conversation thread.
// Its composite identity is (TicketID, SortKey); messages are never
// mutated or deleted once written.
//
// SortKey is "<created_at>#<message_id>": the fixed-width timestamp makes
// lexicographic order equal creation order, and the unique suffix keeps
// two messages written in the same tick from colliding.
type Message struct {
	TicketID      string       `json:"ticket_id" dynamodbav:"ticket_id"`
	SortKey       string       `json:"message_sort_key" dynamodbav:"message_sort_key"`
	MessageID     string       `json:"message_id" dynamodbav:"message_id"`
	CreatedAt     string       `json:"created_at" dynamodbav:"created_at"`
	CreatedByType SenderType   `json:"created_by_type" dynamodbav:"created_by_type"`
	CreatedByID   string       `json:"created_by_id" dynamodbav:"created_by_id"`
	CreatedSource string       `json:"created_source" dynamodbav:"created_source"`
	Text          string       `json:"text" dynamodbav:"text"`
	Attachments   []Attachment `json:"attachments" dynamodbav:"attachments"`
}

// AppendMessageRequest carries the input for appending a message to a
// ticket's thread.
type AppendMessageRequest struct {
	Text          string       `json:"text"`
	CreatedByType string       `json:"created_by_type"`
	CreatedByID   string       `json:"created_by_id"`
	CreatedSource string       `json:"created_source"`
	Attachments   []Attachment `json:"attachments"`
}

// Validate checks required fields and normalizes the sender type.
func (r *AppendMessageRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return NewValidationError("text")
	}
	if strings.TrimSpace(r.CreatedByType) == "" {
		return NewValidationError("created_by_type")
	}
	st, ok := ParseSenderType(r.CreatedByType)
	if !ok {
		return &ValidationError{Field: "created_by_type", Reason: "must be CLIENT or AGENT"}
	}
	r.CreatedByType = string(st)
	if strings.TrimSpace(r.CreatedByID) == "" {
		return NewValidationError("created_by_id")
	}
	if strings.TrimSpace(r.CreatedSource) == "" {
		return NewValidationError("created_source")
	}
	return nil
}
