package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/access"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PriorityID  *int    `json:"priority_id"`
	Category    *string `json:"category"`
}

// UpdateTicketRequest carries a partial field update and an optional comment
// submitted in the same form.
type UpdateTicketRequest struct {
	ExpectedVersion *int    `json:"expected_version"`
	StatusID        *int    `json:"status_id"`
	PriorityID      *int    `json:"priority_id"`
	Category        *string `json:"category"`
	AssigneeID      *string `json:"assignee_id"`
	Comment         *string `json:"comment"`
}

// HasFieldChanges reports whether any ticket field is present.
func (r UpdateTicketRequest) HasFieldChanges() bool {
	return r.StatusID != nil || r.PriorityID != nil || r.Category != nil || r.AssigneeID != nil
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// Ref is an id/name pair for lookup values.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UserRef identifies a person by id and display name.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Status     Ref        `json:"status"`
	Priority   Ref        `json:"priority"`
	Category   *string    `json:"category"`
	Submitter  UserRef    `json:"submitter"`
	Assignee   *UserRef   `json:"assignee"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	Version    int        `json:"version"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description  string              `json:"description"`
	Comments     []CommentResponse   `json:"comments"`
	Capabilities access.Capabilities `json:"capabilities"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	Author    UserRef   `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// EditResponse reports both halves of a combined edit.
type EditResponse struct {
	Ticket  *TicketDetailResponse `json:"ticket,omitempty"`
	Comment *CommentResponse      `json:"comment,omitempty"`
	Errors  map[string]ErrorBody  `json:"errors,omitempty"`
}

// ErrorBody mirrors the error envelope used by the error middleware.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ReferenceResponse lists lookup values for pickers.
type ReferenceResponse struct {
	Statuses   []Ref    `json:"statuses"`
	Priorities []Ref    `json:"priorities"`
	Categories []string `json:"categories"`
}
