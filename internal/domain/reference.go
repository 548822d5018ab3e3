package domain

// StatusID identifies a ticket status. Values match the ticket_statuses table.
type StatusID int

const (
	StatusOpen                StatusID = 1
	StatusAssigned            StatusID = 2
	StatusInProgress          StatusID = 3
	StatusPendingUserResponse StatusID = 4
	StatusResolved            StatusID = 5
	StatusClosed              StatusID = 6
)

var statusNames = map[StatusID]string{
	StatusOpen:                "Open",
	StatusAssigned:            "Assigned",
	StatusInProgress:          "In Progress",
	StatusPendingUserResponse: "Pending User Response",
	StatusResolved:            "Resolved",
	StatusClosed:              "Closed",
}

// Valid reports whether the id is part of the closed status enumeration.
func (s StatusID) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Name returns the display name, or "" for unknown ids.
func (s StatusID) Name() string {
	return statusNames[s]
}

// Terminal is true only for Closed.
func (s StatusID) Terminal() bool {
	return s == StatusClosed
}

// Finished is true for Resolved and Closed, the statuses that carry a resolution timestamp.
func (s StatusID) Finished() bool {
	return s == StatusResolved || s == StatusClosed
}

// Statuses returns the status enumeration in id order.
func Statuses() []StatusRef {
	out := make([]StatusRef, 0, len(statusNames))
	for id := StatusOpen; id <= StatusClosed; id++ {
		out = append(out, StatusRef{ID: id, Name: statusNames[id]})
	}
	return out
}

// PriorityID identifies a row of the open-ended priority list.
type PriorityID int

const (
	// PriorityUnset in a patch resets the ticket to the default priority.
	PriorityUnset    PriorityID = 0
	PriorityLow      PriorityID = 1
	PriorityMedium   PriorityID = 2
	PriorityHigh     PriorityID = 3
	PriorityCritical PriorityID = 4

	DefaultPriority = PriorityMedium
)

// StatusRef is a status reference-data row.
type StatusRef struct {
	ID   StatusID
	Name string
}

// PriorityRef is a priority reference-data row.
type PriorityRef struct {
	ID   PriorityID
	Name string
}

// DefaultPriorities seeds stores that have no priority table of their own.
func DefaultPriorities() []PriorityRef {
	return []PriorityRef{
		{ID: PriorityLow, Name: "Low"},
		{ID: PriorityMedium, Name: "Medium"},
		{ID: PriorityHigh, Name: "High"},
		{ID: PriorityCritical, Name: "Critical"},
	}
}

// CategoryMaxLength bounds the free-form category value.
const CategoryMaxLength = 100

// CategorySuggestions is the suggested category list. Other values are accepted.
var CategorySuggestions = []string{"Hardware", "Software", "Network", "Account Request", "Other"}
