package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a ticket. Any state may transition to
// any other; OPEN is the creation default.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusResolved   Status = "RESOLVED"
)

// ParseStatus normalizes a status string to upper case and reports whether
// it is one of the four known states.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusOpen, StatusInProgress, StatusOnHold, StatusResolved:
		return st, true
	}
	return st, false
}

// NextAction indicates whether an agent or the client is expected to act
// next on a ticket. It is derived from the last message's sender.
type NextAction string

const (
	NextActionAgent  NextAction = "AGENT"
	NextActionClient NextAction = "CLIENT"
)

// ParseNextAction normalizes and validates a next_action string.
func ParseNextAction(s string) (NextAction, bool) {
	na := NextAction(strings.ToUpper(strings.TrimSpace(s)))
	switch na {
	case NextActionAgent, NextActionClient:
		return na, true
	}
	return na, false
}

// Unassigned is the sentinel assignee for tickets without an owner.
const Unassigned = "UNASSIGNED"

// Priority defaults; the field itself is a free-form string and the
// backend stays permissive about its values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const defaultCategory = "other"

// TimestampLayout is the wire and storage format for all timestamps.
// Fixed-width fractional seconds keep lexicographic order equal to
// chronological order, which the secondary indexes and message sort keys
// rely on.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// NowTimestamp returns the current UTC time in TimestampLayout.
func NowTimestamp() string {
	return FormatTimestamp(time.Now())
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Client is the embedded record describing the ticket's owning customer.
type Client struct {
	FirstName string `json:"first_name" dynamodbav:"first_name"`
	LastName  string `json:"last_name" dynamodbav:"last_name"`
	Email     string `json:"email" dynamodbav:"email"`
	Phone     string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
}

// Ticket is a unit of customer-support work with a lifecycle status and an
// owning client. Aggregate fields (MessageCount, LastMessageAt, NextAction)
// are derived from the message log and maintained by the thread manager.
type Ticket struct {
	TicketID      string     `json:"ticket_id" dynamodbav:"ticket_id"`
	TenantID      string     `json:"tenant_id,omitempty" dynamodbav:"tenant_id,omitempty"`
	Subject       string     `json:"subject" dynamodbav:"subject"`
	Status        Status     `json:"status" dynamodbav:"status"`
	AssignedTo    string     `json:"assigned_to" dynamodbav:"assigned_to"`
	Priority      string     `json:"priority" dynamodbav:"priority"`
	Category      string     `json:"category" dynamodbav:"category"`
	Channel       string     `json:"channel" dynamodbav:"channel"`
	TicketGroup   string     `json:"ticket_group" dynamodbav:"ticket_group"`
	Client        Client     `json:"client" dynamodbav:"client"`
	MessageCount  int        `json:"message_count" dynamodbav:"message_count"`
	NextAction    NextAction `json:"next_action" dynamodbav:"next_action"`
	CreatedAt     string     `json:"created_at" dynamodbav:"created_at"`
	LastUpdatedAt string     `json:"last_updated_at" dynamodbav:"last_updated_at"`
	LastMessageAt *string    `json:"last_message_at" dynamodbav:"last_message_at"`
	ResolvedAt    *string    `json:"resolved_at" dynamodbav:"resolved_at"`
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	c := *t
	if t.LastMessageAt != nil {
		v := *t.LastMessageAt
		c.LastMessageAt = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}

// CreateTicketRequest carries the input for ticket creation.
type CreateTicketRequest struct {
	Subject        string `json:"subject"`
	Client         Client `json:"client"`
	Channel        string `json:"channel"`
	TicketGroup    string `json:"ticket_group"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	InitialMessage string `json:"initial_message"`
}

// Validate checks required fields and applies defaults for priority and
// category.
func (r *CreateTicketRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Subject) == "":
		return NewValidationError("subject")
	case strings.TrimSpace(r.Client.FirstName) == "":
		return NewValidationError("client.first_name")
	case strings.TrimSpace(r.Client.LastName) == "":
		return NewValidationError("client.last_name")
	case strings.TrimSpace(r.Client.Email) == "":
		return NewValidationError("client.email")
	case strings.TrimSpace(r.Channel) == "":
		return NewValidationError("channel")
	case strings.TrimSpace(r.TicketGroup) == "":
		return NewValidationError("ticket_group")
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Category == "" {
		r.Category = defaultCategory
	}
	return nil
}

// TicketPatch enumerates the fields mutable through a ticket update.
// Pointer fields distinguish "not provided" from "provided as empty":
// an explicit empty assigned_to clears the assignee, a nil one leaves it
// untouched. Any other field in an update request is ignored.
type TicketPatch struct {
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	TicketGroup *string `json:"ticket_group"`
	NextAction  *string `json:"next_action"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *TicketPatch) IsEmpty() bool {
	return p.Status == nil && p.AssignedTo == nil && p.Priority == nil &&
		p.Category == nil && p.TicketGroup == nil && p.NextAction == nil
}

// TicketUpdate is a normalized patch ready for the store adapter: field
// values validated and upper-cased by the lifecycle engine, plus the
// timestamps the adapter must write in the same conditional update.
// ResolvedAt is non-nil exactly when the patch moves the ticket into
// RESOLVED; re-resolving overwrites the earlier timestamp.
type TicketUpdate struct {
	Patch      TicketPatch
	UpdatedAt  string
	ResolvedAt *string
}

// TicketFilter selects at most one secondary index for a ticket listing.
// When more than one field is set the engine honors only the first in the
// order status, assigned_to, ticket_group.
type TicketFilter struct {
	Status      string
	AssignedTo  string
	TicketGroup string
}
