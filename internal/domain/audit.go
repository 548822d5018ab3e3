package domain

import "time"

// AuditEntry records who did what to which ticket.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	TicketID   int64
	Detail     string
	OccurredAt time.Time
}
