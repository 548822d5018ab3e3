package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/access"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// LifecycleService applies ticket mutations: creation, field updates, comments
// and deletion. Every operation reloads the ticket and asks the access package
// what the caller may do before writing.
type LifecycleService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	reference  repository.ReferenceRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo    repository.TicketRepository
	CommentRepo   repository.CommentRepository
	UserRepo      repository.UserRepository
	ReferenceRepo repository.ReferenceRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	PriorityID  *domain.PriorityID
	Category    *string
}

// TicketPatch lists the fields to change. Nil fields are left untouched.
type TicketPatch struct {
	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int
	StatusID        *domain.StatusID
	// PriorityID set to domain.PriorityUnset restores the default priority.
	PriorityID *domain.PriorityID
	// Category set to "" clears the category.
	Category *string
	// AssigneeID set to "" unassigns the ticket.
	AssigneeID *string
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.StatusID == nil && p.PriorityID == nil && p.Category == nil && p.AssigneeID == nil
}

// EditOutcome reports both halves of a combined edit.
type EditOutcome struct {
	Ticket     *domain.Ticket
	Comment    *domain.Comment
	UpdateErr  error
	CommentErr error
}

// Err joins whichever halves failed.
func (o EditOutcome) Err() error {
	return errors.Join(o.CommentErr, o.UpdateErr)
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		reference:  deps.ReferenceRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Create submits a new ticket on behalf of caller.
func (s *LifecycleService) Create(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	if !access.CanCreate(caller) {
		return nil, apperrors.NewUnauthorized("caller identity required")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	switch {
	case title == "":
		details["title"] = "required"
	case utf8.RuneCountInString(title) > domain.TitleMaxLength:
		details["title"] = fmt.Sprintf("must be at most %d characters", domain.TitleMaxLength)
	}
	if description == "" {
		details["description"] = "required"
	}
	category, err := normalizeCategory(input.Category)
	if err != nil {
		details["category"] = err.Error()
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	priority := domain.DefaultPriority
	if input.PriorityID != nil && *input.PriorityID != domain.PriorityUnset {
		if err := s.ensurePriority(ctx, *input.PriorityID); err != nil {
			return nil, err
		}
		priority = *input.PriorityID
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		SubmitterID: caller.ID,
		StatusID:    domain.StatusOpen,
		PriorityID:  priority,
		Category:    category,
		CreatedAt:   s.now(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, s.persistenceError("create ticket", err)
	}

	s.logger.Info("ticket created", zap.Int64("ticket_id", ticket.ID), zap.String("submitter_id", caller.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			PriorityID: ticket.PriorityID,
			Category:   ticket.Category,
		},
	})
	return ticket, nil
}

// UpdateFields applies a partial update to status, priority, category and
// assignee, then maintains the resolution timestamp.
func (s *LifecycleService) UpdateFields(ctx context.Context, ticketID int64, caller domain.Caller, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	caps := access.Evaluate(caller, ticket)
	if !caps.View {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !caller.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if ticket.Closed() {
		return nil, closedError(ticket)
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}
	if (patch.StatusID != nil && !caps.ChangeStatus) ||
		(patch.AssigneeID != nil && !caps.Assign) ||
		((patch.PriorityID != nil || patch.Category != nil) && !caps.EditFields) {
		return nil, apperrors.NewForbidden("insufficient capability")
	}

	changes, err := s.applyPatch(ctx, ticket, patch)
	if err != nil {
		return nil, err
	}
	ticket.ApplyResolution(s.now())

	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != ticket.Version {
		return nil, apperrors.NewConcurrencyConflict(map[string]any{
			"ticket_id":        ticket.ID,
			"expected_version": *patch.ExpectedVersion,
			"current_version":  ticket.Version,
		})
	}
	loadedVersion := ticket.Version
	if err := s.tickets.Save(ctx, ticket, loadedVersion); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionMismatch):
			return nil, apperrors.NewConcurrencyConflict(map[string]any{
				"ticket_id":        ticket.ID,
				"expected_version": loadedVersion,
			})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		default:
			return nil, s.persistenceError("save ticket", err)
		}
	}

	s.logger.Info("ticket updated",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("actor_id", caller.ID),
		zap.Int("version", ticket.Version),
		zap.Int("changes", len(changes)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload:  events.TicketUpdatedPayload{Changes: changes, Version: ticket.Version},
	})
	return ticket, nil
}

// AddComment appends a comment to a ticket the caller may comment on.
func (s *LifecycleService) AddComment(ctx context.Context, ticketID int64, caller domain.Caller, text string) (*domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	caps := access.Evaluate(caller, ticket)
	if !caps.View {
		return nil, apperrors.NewForbidden("access denied")
	}
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, apperrors.NewValidationError("comment text cannot be empty", map[string]any{"text": "required"})
	}
	if ticket.Closed() {
		return nil, closedError(ticket)
	}
	if !caps.Comment {
		return nil, apperrors.NewForbidden("comment not allowed")
	}

	comment := &domain.Comment{
		TicketID:  ticket.ID,
		AuthorID:  caller.ID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, s.persistenceError("create comment", err)
	}

	s.logger.Info("comment added", zap.Int64("ticket_id", ticket.ID), zap.Int64("comment_id", comment.ID), zap.String("author_id", caller.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// Edit runs a comment append and a field update submitted together. Both are
// attempted as separate writes and each result is reported. The comment goes
// first so a closing note is accepted alongside a move to Closed.
func (s *LifecycleService) Edit(ctx context.Context, ticketID int64, caller domain.Caller, patch *TicketPatch, commentText string) EditOutcome {
	var outcome EditOutcome
	hasComment := strings.TrimSpace(commentText) != ""
	if patch == nil && !hasComment {
		outcome.UpdateErr = apperrors.NewValidationError("no fields to update", nil)
		return outcome
	}

	if hasComment {
		outcome.Comment, outcome.CommentErr = s.AddComment(ctx, ticketID, caller, commentText)
	}
	if patch != nil {
		outcome.Ticket, outcome.UpdateErr = s.UpdateFields(ctx, ticketID, caller, *patch)
	}
	return outcome
}

// Delete removes a ticket and its comments. Managers only.
func (s *LifecycleService) Delete(ctx context.Context, ticketID int64, caller domain.Caller) error {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	caps := access.Evaluate(caller, ticket)
	if !caps.View || !caps.Delete {
		return apperrors.NewForbidden("manager role required")
	}

	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return s.persistenceError("delete ticket", err)
	}

	s.logger.Warn("ticket deleted", zap.Int64("ticket_id", ticket.ID), zap.String("actor_id", caller.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload:  events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

func (s *LifecycleService) applyPatch(ctx context.Context, ticket *domain.Ticket, patch TicketPatch) ([]events.FieldChange, error) {
	var changes []events.FieldChange

	if patch.StatusID != nil {
		status := *patch.StatusID
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status_id": int(status)})
		}
		if status != ticket.StatusID {
			changes = append(changes, events.FieldChange{Field: "status", Old: ticket.StatusID.Name(), New: status.Name()})
			ticket.StatusID = status
		}
	}

	if patch.PriorityID != nil {
		priority := *patch.PriorityID
		if priority == domain.PriorityUnset {
			priority = domain.DefaultPriority
		} else if err := s.ensurePriority(ctx, priority); err != nil {
			return nil, err
		}
		if priority != ticket.PriorityID {
			changes = append(changes, events.FieldChange{
				Field: "priority",
				Old:   strconv.Itoa(int(ticket.PriorityID)),
				New:   strconv.Itoa(int(priority)),
			})
			ticket.PriorityID = priority
		}
	}

	if patch.Category != nil {
		category, err := normalizeCategory(patch.Category)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": err.Error()})
		}
		if derefString(category) != derefString(ticket.Category) {
			changes = append(changes, events.FieldChange{Field: "category", Old: derefString(ticket.Category), New: derefString(category)})
			ticket.Category = category
		}
	}

	if patch.AssigneeID != nil {
		var assignee *string
		if id := strings.TrimSpace(*patch.AssigneeID); id != "" {
			if err := s.ensureStaff(ctx, id); err != nil {
				return nil, err
			}
			assignee = &id
		}
		if derefString(assignee) != derefString(ticket.AssigneeID) {
			changes = append(changes, events.FieldChange{Field: "assignee", Old: derefString(ticket.AssigneeID), New: derefString(assignee)})
			ticket.AssigneeID = assignee
		}
	}

	return changes, nil
}

// ensureStaff checks the prospective assignee's roles as they are now.
func (s *LifecycleService) ensureStaff(ctx context.Context, userID string) error {
	roles, err := s.users.RolesOf(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("assignee does not exist", map[string]any{"assignee_id": userID})
		}
		return s.persistenceError("load assignee roles", err)
	}
	if !roles.IsStaff() {
		return apperrors.NewValidationError("assignee must hold a staff role", map[string]any{"assignee_id": userID})
	}
	return nil
}

func (s *LifecycleService) ensurePriority(ctx context.Context, id domain.PriorityID) error {
	if _, err := s.reference.GetPriority(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority_id": int(id)})
		}
		return s.persistenceError("load priority", err)
	}
	return nil
}

func (s *LifecycleService) loadTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, s.persistenceError("load ticket", err)
	}
	return ticket, nil
}

func (s *LifecycleService) persistenceError(op string, err error) error {
	s.logger.Error("persistence failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewPersistenceError(op+" failed", err)
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func closedError(ticket *domain.Ticket) error {
	return apperrors.NewInvalidState("ticket is closed", map[string]any{
		"ticket_id": ticket.ID,
		"status":    ticket.StatusID.Name(),
	})
}

func normalizeCategory(category *string) (*string, error) {
	if category == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*category)
	if value == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(value) > domain.CategoryMaxLength {
		return nil, fmt.Errorf("must be at most %d characters", domain.CategoryMaxLength)
	}
	return &value, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
