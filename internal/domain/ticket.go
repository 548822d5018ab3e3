package domain

import "time"

// TitleMaxLength bounds ticket titles, counted in runes.
const TitleMaxLength = 200

// Ticket is the aggregate for support requests. Relations are held as ids and
// resolved through explicit lookups.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	SubmitterID string
	AssigneeID  *string
	StatusID    StatusID
	PriorityID  PriorityID
	Category    *string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	// Version is the optimistic concurrency marker read with the snapshot.
	Version int
}

// Closed reports whether the ticket reached the terminal status.
func (t *Ticket) Closed() bool {
	return t.StatusID.Terminal()
}

// SubmittedBy reports whether userID created the ticket.
func (t *Ticket) SubmittedBy(userID string) bool {
	return userID != "" && t.SubmitterID == userID
}

// ApplyResolution maintains ResolvedAt after a status change: it is stamped the
// first time the ticket enters the finished set and cleared whenever it leaves.
func (t *Ticket) ApplyResolution(now time.Time) {
	if !t.StatusID.Finished() {
		t.ResolvedAt = nil
		return
	}
	if t.ResolvedAt == nil {
		stamp := now
		t.ResolvedAt = &stamp
	}
}
