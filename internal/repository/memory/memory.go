// Package memory implements the repository interfaces in process. It backs the
// service when no Postgres DSN is configured and serves as the store in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// DB holds every table behind one mutex.
type DB struct {
	mu            sync.Mutex
	tickets       map[int64]domain.Ticket
	comments      map[int64]domain.Comment
	users         map[string]domain.User
	priorities    map[domain.PriorityID]domain.PriorityRef
	nextTicketID  int64
	nextCommentID int64
	audit         []domain.AuditEntry
}

// NewDB returns an empty store seeded with the default reference data.
func NewDB() *DB {
	db := &DB{
		tickets:    make(map[int64]domain.Ticket),
		comments:   make(map[int64]domain.Comment),
		users:      make(map[string]domain.User),
		priorities: make(map[domain.PriorityID]domain.PriorityRef),
	}
	for _, p := range domain.DefaultPriorities() {
		db.priorities[p.ID] = p
	}
	return db
}

// PutUser inserts or replaces a user with its role grants.
func (db *DB) PutUser(user domain.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	user.Roles = copyRoles(user.Roles)
	db.users[user.ID] = user
}

// DemoUsers are seeded by SeedDemoUsers, one per role.
var DemoUsers = []domain.User{
	{ID: "employee-1", FullName: "Erin Employee", Email: "erin@example.com", Roles: domain.NewRoleSet(domain.RoleEmployee)},
	{ID: "agent-1", FullName: "Sam Support", Email: "sam@example.com", Roles: domain.NewRoleSet(domain.RoleSupportAgent)},
	{ID: "manager-1", FullName: "Morgan Manager", Email: "morgan@example.com", Roles: domain.NewRoleSet(domain.RoleManager)},
}

// SeedDemoUsers stores DemoUsers so a DSN-less instance can be exercised.
func (db *DB) SeedDemoUsers() {
	for _, user := range DemoUsers {
		db.PutUser(user)
	}
}

// PutPriority extends the priority list.
func (db *DB) PutPriority(ref domain.PriorityRef) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.priorities[ref.ID] = ref
}

// AuditEntries returns a copy of everything appended to the audit sink.
func (db *DB) AuditEntries() []domain.AuditEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.AuditEntry(nil), db.audit...)
}

// CommentCount returns the number of stored comments across all tickets.
func (db *DB) CommentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.comments)
}

func (db *DB) Tickets() repository.TicketRepository { return ticketStore{db} }
func (db *DB) Comments() repository.CommentRepository { return commentStore{db} }
func (db *DB) Users() repository.UserRepository { return userStore{db} }
func (db *DB) Reference() repository.ReferenceRepository { return referenceStore{db} }
func (db *DB) Audit() repository.AuditRepository { return auditStore{db} }

type ticketStore struct{ db *DB }

func (s ticketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextTicketID++
	ticket.ID = s.db.nextTicketID
	ticket.Version = 1
	s.db.tickets[ticket.ID] = copyTicket(*ticket)
	return nil
}

func (s ticketStore) Save(_ context.Context, ticket *domain.Ticket, expectedVersion int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionMismatch
	}
	stored.AssigneeID = ticket.AssigneeID
	stored.StatusID = ticket.StatusID
	stored.PriorityID = ticket.PriorityID
	stored.Category = ticket.Category
	stored.ResolvedAt = ticket.ResolvedAt
	stored.Version++
	s.db.tickets[ticket.ID] = copyTicket(stored)
	ticket.Version = stored.Version
	return nil
}

func (s ticketStore) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := copyTicket(stored)
	return &ticket, nil
}

func (s ticketStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	for commentID, comment := range s.db.comments {
		if comment.TicketID == id {
			delete(s.db.comments, commentID)
		}
	}
	delete(s.db.tickets, id)
	return nil
}

func (s ticketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	statuses := make(map[domain.StatusID]bool, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = true
	}

	var result []domain.Ticket
	for _, ticket := range s.db.tickets {
		if filter.SubmitterID != nil && ticket.SubmitterID != *filter.SubmitterID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(statuses) > 0 && !statuses[ticket.StatusID] {
			continue
		}
		result = append(result, copyTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

type commentStore struct{ db *DB }

func (s commentStore) Create(_ context.Context, comment *domain.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tickets[comment.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	s.db.nextCommentID++
	comment.ID = s.db.nextCommentID
	s.db.comments[comment.ID] = *comment
	return nil
}

func (s commentStore) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var result []domain.Comment
	for _, comment := range s.db.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	domain.SortComments(result)
	return result, nil
}

type userStore struct{ db *DB }

func (s userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Roles = copyRoles(user.Roles)
	return &user, nil
}

func (s userStore) RolesOf(ctx context.Context, id string) (domain.RoleSet, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

func (s userStore) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var result []domain.User
	for _, id := range ids {
		if user, ok := s.db.users[id]; ok {
			user.Roles = copyRoles(user.Roles)
			result = append(result, user)
		}
	}
	return result, nil
}

func (s userStore) ListStaff(_ context.Context) ([]domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var result []domain.User
	for _, user := range s.db.users {
		if user.Roles.IsStaff() {
			user.Roles = copyRoles(user.Roles)
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FullName == result[j].FullName {
			return result[i].ID < result[j].ID
		}
		return result[i].FullName < result[j].FullName
	})
	return result, nil
}

type referenceStore struct{ db *DB }

func (s referenceStore) ListStatuses(_ context.Context) ([]domain.StatusRef, error) {
	return domain.Statuses(), nil
}

func (s referenceStore) ListPriorities(_ context.Context) ([]domain.PriorityRef, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	result := make([]domain.PriorityRef, 0, len(s.db.priorities))
	for _, ref := range s.db.priorities {
		result = append(result, ref)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s referenceStore) GetPriority(_ context.Context, id domain.PriorityID) (*domain.PriorityRef, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ref, ok := s.db.priorities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ref, nil
}

type auditStore struct{ db *DB }

func (s auditStore) Append(_ context.Context, entry domain.AuditEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.audit = append(s.db.audit, entry)
	return nil
}

func copyTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		t.AssigneeID = &v
	}
	if t.Category != nil {
		v := *t.Category
		t.Category = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		t.ResolvedAt = &v
	}
	return t
}

func copyRoles(roles domain.RoleSet) domain.RoleSet {
	out := make(domain.RoleSet, len(roles))
	for role := range roles {
		out[role] = struct{}{}
	}
	return out
}
