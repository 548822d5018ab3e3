package access

import (
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
)

func caller(id string, roles ...domain.Role) domain.Caller {
	return domain.Caller{ID: id, Roles: domain.NewRoleSet(roles...)}
}

func TestEvaluate(t *testing.T) {
	open := &domain.Ticket{ID: 1, SubmitterID: "emp", StatusID: domain.StatusInProgress}
	closed := &domain.Ticket{ID: 2, SubmitterID: "emp", StatusID: domain.StatusClosed}
	resolved := &domain.Ticket{ID: 3, SubmitterID: "emp", StatusID: domain.StatusResolved}

	tests := []struct {
		name   string
		caller domain.Caller
		ticket *domain.Ticket
		want   Capabilities
	}{
		{
			name:   "submitter on open ticket",
			caller: caller("emp", domain.RoleEmployee),
			ticket: open,
			want:   Capabilities{View: true, Comment: true},
		},
		{
			name:   "other employee",
			caller: caller("other", domain.RoleEmployee),
			ticket: open,
			want:   Capabilities{},
		},
		{
			name:   "agent on open ticket",
			caller: caller("agent", domain.RoleSupportAgent),
			ticket: open,
			want:   Capabilities{View: true, Comment: true, EditFields: true, Assign: true, ChangeStatus: true},
		},
		{
			name:   "manager on open ticket",
			caller: caller("mgr", domain.RoleManager),
			ticket: open,
			want:   Capabilities{View: true, Comment: true, EditFields: true, Assign: true, ChangeStatus: true, Delete: true},
		},
		{
			name:   "agent on closed ticket",
			caller: caller("agent", domain.RoleSupportAgent),
			ticket: closed,
			want:   Capabilities{View: true},
		},
		{
			name:   "manager on closed ticket keeps delete",
			caller: caller("mgr", domain.RoleManager),
			ticket: closed,
			want:   Capabilities{View: true, Delete: true},
		},
		{
			name:   "submitter on closed ticket",
			caller: caller("emp", domain.RoleEmployee),
			ticket: closed,
			want:   Capabilities{View: true},
		},
		{
			name:   "resolved is not terminal",
			caller: caller("emp", domain.RoleEmployee),
			ticket: resolved,
			want:   Capabilities{View: true, Comment: true},
		},
		{
			name:   "submitter without any role still views own ticket",
			caller: caller("emp"),
			ticket: open,
			want:   Capabilities{View: true, Comment: true},
		},
		{
			name:   "anonymous caller",
			caller: domain.Caller{},
			ticket: &domain.Ticket{ID: 4, StatusID: domain.StatusOpen},
			want:   Capabilities{},
		},
		{
			name:   "nil ticket",
			caller: caller("mgr", domain.RoleManager),
			ticket: nil,
			want:   Capabilities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.caller, tt.ticket)
			if got != tt.want {
				t.Fatalf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCapabilityImplications(t *testing.T) {
	callers := []domain.Caller{
		caller("emp", domain.RoleEmployee),
		caller("other", domain.RoleEmployee),
		caller("agent", domain.RoleSupportAgent),
		caller("mgr", domain.RoleManager),
		caller("both", domain.RoleEmployee, domain.RoleSupportAgent),
	}
	for _, status := range domain.Statuses() {
		ticket := &domain.Ticket{ID: 1, SubmitterID: "emp", StatusID: status.ID}
		for _, c := range callers {
			caps := Evaluate(c, ticket)
			if caps.Comment && !caps.View {
				t.Errorf("%s/%s: comment without view", c.ID, status.Name)
			}
			if ticket.Closed() && (caps.Comment || caps.EditFields || caps.Assign || caps.ChangeStatus) {
				t.Errorf("%s/%s: mutation capability on closed ticket: %+v", c.ID, status.Name, caps)
			}
			if caps.Delete != c.Roles.IsManager() {
				t.Errorf("%s/%s: delete = %v", c.ID, status.Name, caps.Delete)
			}
		}
	}
}

func TestCapabilitiesList(t *testing.T) {
	caps := Capabilities{View: true, Assign: true, Delete: true}
	got := caps.List()
	want := []Capability{CanView, CanAssign, CanDelete}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if caps.Has(CanComment) || !caps.Has(CanDelete) || caps.Has(Capability("bogus")) {
		t.Fatalf("Has() mismatch for %+v", caps)
	}
}

func TestCanCreateAndListAssignees(t *testing.T) {
	if CanCreate(domain.Caller{}) {
		t.Fatal("anonymous caller must not create")
	}
	if !CanCreate(caller("emp")) {
		t.Fatal("any identified caller may create")
	}
	if CanListAssignees(caller("emp", domain.RoleEmployee)) {
		t.Fatal("employee must not list assignees")
	}
	if !CanListAssignees(caller("agent", domain.RoleSupportAgent)) {
		t.Fatal("agent may list assignees")
	}
}
