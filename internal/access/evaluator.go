// Package access derives what a caller may do with a ticket. It is the single
// place role and ownership rules are expressed; services and handlers consult it
// instead of comparing roles themselves.
package access

import "github.com/spec-kit/support-desk/internal/domain"

// Capability is one action a caller may perform on a ticket.
type Capability string

const (
	CanView         Capability = "view"
	CanComment      Capability = "comment"
	CanEditFields   Capability = "edit_fields"
	CanAssign       Capability = "assign"
	CanChangeStatus Capability = "change_status"
	CanDelete       Capability = "delete"
)

// Capabilities is the capability set for one caller against one ticket.
type Capabilities struct {
	View         bool `json:"can_view"`
	Comment      bool `json:"can_comment"`
	EditFields   bool `json:"can_edit_fields"`
	Assign       bool `json:"can_assign"`
	ChangeStatus bool `json:"can_change_status"`
	Delete       bool `json:"can_delete"`
}

// Has reports whether the set grants c.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case CanView:
		return c.View
	case CanComment:
		return c.Comment
	case CanEditFields:
		return c.EditFields
	case CanAssign:
		return c.Assign
	case CanChangeStatus:
		return c.ChangeStatus
	case CanDelete:
		return c.Delete
	}
	return false
}

// List returns the granted capabilities in a fixed order.
func (c Capabilities) List() []Capability {
	all := []Capability{CanView, CanComment, CanEditFields, CanAssign, CanChangeStatus, CanDelete}
	out := make([]Capability, 0, len(all))
	for _, capability := range all {
		if c.Has(capability) {
			out = append(out, capability)
		}
	}
	return out
}

// Evaluate computes the capability set of caller for ticket. A nil ticket yields
// no capabilities; creation is checked with CanCreate.
func Evaluate(caller domain.Caller, ticket *domain.Ticket) Capabilities {
	if ticket == nil || caller.ID == "" {
		return Capabilities{}
	}

	staff := caller.IsStaff()
	submitter := ticket.SubmittedBy(caller.ID)
	open := !ticket.Closed()

	caps := Capabilities{
		View:   staff || submitter,
		Delete: caller.Roles.IsManager(),
	}
	caps.Comment = caps.View && open
	caps.EditFields = staff && open
	caps.Assign = staff && open
	caps.ChangeStatus = staff && open
	return caps
}

// CanCreate reports whether caller may submit a ticket.
func CanCreate(caller domain.Caller) bool {
	return caller.ID != ""
}

// CanListAssignees reports whether caller may browse the assignable staff list.
func CanListAssignees(caller domain.Caller) bool {
	return caller.ID != "" && caller.IsStaff()
}
