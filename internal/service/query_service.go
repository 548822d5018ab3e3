package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/access"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// QueryService serves role-filtered ticket listings and detail views.
type QueryService struct {
	tickets   repository.TicketRepository
	comments  repository.CommentRepository
	users     repository.UserRepository
	reference repository.ReferenceRepository
	logger    *zap.Logger
	conceal   bool
}

// QueryDependencies bundles repositories for the query service.
type QueryDependencies struct {
	TicketRepo    repository.TicketRepository
	CommentRepo   repository.CommentRepository
	UserRepo      repository.UserRepository
	ReferenceRepo repository.ReferenceRepository
	Logger        *zap.Logger
	// ConcealInaccessible reports tickets the caller cannot view as not found.
	ConcealInaccessible bool
}

// TicketListFilter narrows a listing. It never widens what the caller may see.
type TicketListFilter struct {
	Statuses   []domain.StatusID
	AssigneeID *string
	Limit      int
	Offset     int
}

// TicketView is a ticket with its references resolved for display.
type TicketView struct {
	domain.Ticket
	StatusName    string
	PriorityName  string
	SubmitterName string
	AssigneeName  string
}

// CommentView is a comment with its author's display name.
type CommentView struct {
	domain.Comment
	AuthorName string
}

// TicketDetail is a single ticket, its thread and what the caller may do with it.
type TicketDetail struct {
	TicketView
	Comments     []CommentView
	Capabilities access.Capabilities
}

// ReferenceData feeds status, priority and category pickers.
type ReferenceData struct {
	Statuses   []domain.StatusRef
	Priorities []domain.PriorityRef
	Categories []string
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		tickets:   deps.TicketRepo,
		comments:  deps.CommentRepo,
		users:     deps.UserRepo,
		reference: deps.ReferenceRepo,
		logger:    logger,
		conceal:   deps.ConcealInaccessible,
	}
}

// ListForCaller returns tickets newest first. Staff see every ticket; everyone
// else sees only tickets they submitted.
func (s *QueryService) ListForCaller(ctx context.Context, caller domain.Caller, filter TicketListFilter) ([]TicketView, error) {
	if caller.ID == "" {
		return nil, apperrors.NewUnauthorized("caller identity required")
	}
	repoFilter := repository.TicketFilter{
		AssigneeID: filter.AssigneeID,
		Statuses:   filter.Statuses,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if !caller.IsStaff() {
		submitter := caller.ID
		repoFilter.SubmitterID = &submitter
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, s.persistenceError("list tickets", err)
	}

	ids := make([]string, 0, len(tickets)*2)
	for i := range tickets {
		ids = append(ids, tickets[i].SubmitterID)
		if tickets[i].AssigneeID != nil {
			ids = append(ids, *tickets[i].AssigneeID)
		}
	}
	names, err := s.newResolver(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, names.ticketView(tickets[i]))
	}
	return views, nil
}

// GetDetail returns one ticket with its thread oldest first and the caller's
// capability set.
func (s *QueryService) GetDetail(ctx context.Context, ticketID int64, caller domain.Caller) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, s.persistenceError("load ticket", err)
	}

	caps := access.Evaluate(caller, ticket)
	if !caps.View {
		if s.conceal {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, s.persistenceError("list comments", err)
	}
	domain.SortComments(comments)

	ids := []string{ticket.SubmitterID}
	if ticket.AssigneeID != nil {
		ids = append(ids, *ticket.AssigneeID)
	}
	for i := range comments {
		ids = append(ids, comments[i].AuthorID)
	}
	names, err := s.newResolver(ctx, ids)
	if err != nil {
		return nil, err
	}

	detail := &TicketDetail{
		TicketView:   names.ticketView(*ticket),
		Comments:     make([]CommentView, 0, len(comments)),
		Capabilities: caps,
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, CommentView{
			Comment:    comments[i],
			AuthorName: names.user(comments[i].AuthorID),
		})
	}
	return detail, nil
}

// ListAssignees returns users who may currently be assigned tickets.
func (s *QueryService) ListAssignees(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if !access.CanListAssignees(caller) {
		return nil, apperrors.NewForbidden("staff role required")
	}
	users, err := s.users.ListStaff(ctx)
	if err != nil {
		return nil, s.persistenceError("list staff", err)
	}
	return users, nil
}

// Reference returns the lookup lists.
func (s *QueryService) Reference(ctx context.Context) (*ReferenceData, error) {
	statuses, err := s.reference.ListStatuses(ctx)
	if err != nil {
		return nil, s.persistenceError("list statuses", err)
	}
	priorities, err := s.reference.ListPriorities(ctx)
	if err != nil {
		return nil, s.persistenceError("list priorities", err)
	}
	return &ReferenceData{
		Statuses:   statuses,
		Priorities: priorities,
		Categories: append([]string(nil), domain.CategorySuggestions...),
	}, nil
}

func (s *QueryService) persistenceError(op string, err error) error {
	s.logger.Error("persistence failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewPersistenceError(op+" failed", err)
}

// resolver joins ids to display names for the duration of one call.
type resolver struct {
	statuses   map[domain.StatusID]string
	priorities map[domain.PriorityID]string
	users      map[string]string
}

func (s *QueryService) newResolver(ctx context.Context, userIDs []string) (*resolver, error) {
	r := &resolver{
		statuses:   make(map[domain.StatusID]string),
		priorities: make(map[domain.PriorityID]string),
		users:      make(map[string]string),
	}

	statuses, err := s.reference.ListStatuses(ctx)
	if err != nil {
		return nil, s.persistenceError("list statuses", err)
	}
	for _, ref := range statuses {
		r.statuses[ref.ID] = ref.Name
	}
	priorities, err := s.reference.ListPriorities(ctx)
	if err != nil {
		return nil, s.persistenceError("list priorities", err)
	}
	for _, ref := range priorities {
		r.priorities[ref.ID] = ref.Name
	}

	unique := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	users, err := s.users.ListByIDs(ctx, unique)
	if err != nil {
		return nil, s.persistenceError("resolve users", err)
	}
	for i := range users {
		r.users[users[i].ID] = users[i].DisplayName()
	}
	return r, nil
}

func (r *resolver) ticketView(ticket domain.Ticket) TicketView {
	statusName, ok := r.statuses[ticket.StatusID]
	if !ok {
		statusName = ticket.StatusID.Name()
	}
	view := TicketView{
		Ticket:        ticket,
		StatusName:    statusName,
		PriorityName:  r.priorities[ticket.PriorityID],
		SubmitterName: r.user(ticket.SubmitterID),
	}
	if ticket.AssigneeID != nil {
		view.AssigneeName = r.user(*ticket.AssigneeID)
	}
	return view
}

// user falls back to the raw id for identities the directory no longer knows.
func (r *resolver) user(id string) string {
	if name, ok := r.users[id]; ok && name != "" {
		return name
	}
	return id
}
