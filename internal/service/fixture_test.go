package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

var (
	employee     = domain.Caller{ID: "emp-1", Roles: domain.NewRoleSet(domain.RoleEmployee)}
	colleague    = domain.Caller{ID: "emp-2", Roles: domain.NewRoleSet(domain.RoleEmployee)}
	agent        = domain.Caller{ID: "agent-1", Roles: domain.NewRoleSet(domain.RoleSupportAgent)}
	otherAgent   = domain.Caller{ID: "agent-2", Roles: domain.NewRoleSet(domain.RoleSupportAgent)}
	manager      = domain.Caller{ID: "mgr-1", Roles: domain.NewRoleSet(domain.RoleManager)}
	fixtureStart = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
)

// fakeClock advances by one second on every read so timestamps are distinct.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	db        *memory.DB
	clock     *fakeClock
	lifecycle *LifecycleService
	queries   *QueryService
	dispatch  events.Dispatcher
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	tickets repository.TicketRepository
	audit   repository.AuditRepository
	conceal bool
}

func withTickets(repo repository.TicketRepository) fixtureOption {
	return func(cfg *fixtureConfig) { cfg.tickets = repo }
}

func withAudit(sink repository.AuditRepository) fixtureOption {
	return func(cfg *fixtureConfig) { cfg.audit = sink }
}

func withConceal() fixtureOption {
	return func(cfg *fixtureConfig) { cfg.conceal = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db := memory.NewDB()
	for _, c := range []domain.Caller{employee, colleague, agent, otherAgent, manager} {
		db.PutUser(domain.User{ID: c.ID, FullName: "User " + c.ID, Email: c.ID + "@example.com", Roles: c.Roles})
	}

	cfg := fixtureConfig{tickets: db.Tickets(), audit: db.Audit()}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := &fakeClock{now: fixtureStart}
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, cfg.audit, nil).RegisterHandlers()

	return &fixture{
		db:       db,
		clock:    clock,
		dispatch: dispatcher,
		lifecycle: NewLifecycleService(LifecycleDependencies{
			TicketRepo:    cfg.tickets,
			CommentRepo:   db.Comments(),
			UserRepo:      db.Users(),
			ReferenceRepo: db.Reference(),
			Dispatcher:    dispatcher,
			Clock:         clock.Now,
		}),
		queries: NewQueryService(QueryDependencies{
			TicketRepo:          cfg.tickets,
			CommentRepo:         db.Comments(),
			UserRepo:            db.Users(),
			ReferenceRepo:       db.Reference(),
			ConcealInaccessible: cfg.conceal,
		}),
	}
}

func (f *fixture) createTicket(t *testing.T, caller domain.Caller, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.lifecycle.Create(context.Background(), caller, TicketCreateInput{
		Title:       title,
		Description: "details for " + title,
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return ticket
}

func (f *fixture) setStatus(t *testing.T, ticketID int64, caller domain.Caller, status domain.StatusID) *domain.Ticket {
	t.Helper()
	ticket, err := f.lifecycle.UpdateFields(context.Background(), ticketID, caller, TicketPatch{StatusID: &status})
	if err != nil {
		t.Fatalf("set status %s: %v", status.Name(), err)
	}
	return ticket
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func statusPtr(s domain.StatusID) *domain.StatusID { return &s }

func priorityPtr(p domain.PriorityID) *domain.PriorityID { return &p }

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
