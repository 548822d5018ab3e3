package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle and queries.
type TicketsHandler struct {
	lifecycle *service.LifecycleService
	queries   *service.QueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.LifecycleService, queries *service.QueryService) *TicketsHandler {
	return &TicketsHandler{lifecycle: lifecycle, queries: queries}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller := auth.CallerFromContext(c)
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.PriorityID != nil {
		priority := domain.PriorityID(*req.PriorityID)
		input.PriorityID = &priority
	}
	ticket, err := h.lifecycle.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	detail, err := h.queries.GetDetail(c.UserContext(), ticket.ID, caller)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(detail)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.queries.ListForCaller(c.UserContext(), auth.CallerFromContext(c), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.queries.GetDetail(c.UserContext(), ticketID, auth.CallerFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateTicket PATCH /tickets/:id. Field changes and an optional comment are
// applied as two writes; the response reports each.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	caller := auth.CallerFromContext(c)
	var patch *service.TicketPatch
	if req.HasFieldChanges() || req.ExpectedVersion != nil {
		patch = &service.TicketPatch{
			ExpectedVersion: req.ExpectedVersion,
			Category:        req.Category,
			AssigneeID:      req.AssigneeID,
		}
		if req.StatusID != nil {
			status := domain.StatusID(*req.StatusID)
			patch.StatusID = &status
		}
		if req.PriorityID != nil {
			priority := domain.PriorityID(*req.PriorityID)
			patch.PriorityID = &priority
		}
	}
	var commentText string
	if req.Comment != nil {
		commentText = *req.Comment
	}

	outcome := h.lifecycle.Edit(c.UserContext(), ticketID, caller, patch, commentText)
	attempted, failed := 0, 0
	for _, part := range []struct {
		ran bool
		err error
	}{
		{patch != nil, outcome.UpdateErr},
		{strings.TrimSpace(commentText) != "", outcome.CommentErr},
	} {
		if part.ran {
			attempted++
			if part.err != nil {
				failed++
			}
		}
	}
	if attempted == 0 || failed == attempted {
		if outcome.UpdateErr != nil {
			return outcome.UpdateErr
		}
		return outcome.CommentErr
	}

	resp := dto.EditResponse{}
	if outcome.Comment != nil {
		comment := commentResponse(outcome.Comment, authorName(c))
		resp.Comment = &comment
	}
	if outcome.UpdateErr != nil || outcome.CommentErr != nil {
		resp.Errors = map[string]dto.ErrorBody{}
		if outcome.UpdateErr != nil {
			resp.Errors["update"] = errorBody(outcome.UpdateErr)
		}
		if outcome.CommentErr != nil {
			resp.Errors["comment"] = errorBody(outcome.CommentErr)
		}
	}
	detail, err := h.queries.GetDetail(c.UserContext(), ticketID, caller)
	if err != nil {
		return err
	}
	rendered := ticketDetail(detail)
	resp.Ticket = &rendered
	return c.JSON(fiber.Map{"data": resp})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	caller := auth.CallerFromContext(c)
	comment, err := h.lifecycle.AddComment(c.UserContext(), ticketID, caller, req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment, authorName(c))})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	if err := h.lifecycle.Delete(c.UserContext(), ticketID, auth.CallerFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": raw})
	}
	return id, nil
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || !domain.StatusID(id).Valid() {
				return filter, apperrors.NewValidationError("invalid status filter", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, domain.StatusID(id))
		}
	}
	if assignee := strings.TrimSpace(c.Query("assignee")); assignee != "" {
		filter.AssigneeID = &assignee
	}
	var err error
	if filter.Limit, err = parseNonNegative(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseNonNegative(c, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseNonNegative(c *fiber.Ctx, key string) (int, error) {
	val := c.Query(key)
	if val == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return 0, apperrors.NewValidationError("invalid "+key, map[string]any{key: val})
	}
	return parsed, nil
}

func authorName(c *fiber.Ctx) string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return ""
	}
	return principal.User.DisplayName()
}

func ticketSummary(view *service.TicketView) dto.TicketSummary {
	summary := dto.TicketSummary{
		ID:         view.ID,
		Title:      view.Title,
		Status:     dto.Ref{ID: int(view.StatusID), Name: view.StatusName},
		Priority:   dto.Ref{ID: int(view.PriorityID), Name: view.PriorityName},
		Category:   view.Category,
		Submitter:  dto.UserRef{ID: view.SubmitterID, Name: view.SubmitterName},
		CreatedAt:  view.CreatedAt,
		ResolvedAt: view.ResolvedAt,
		Version:    view.Version,
	}
	if view.AssigneeID != nil {
		summary.Assignee = &dto.UserRef{ID: *view.AssigneeID, Name: view.AssigneeName}
	}
	return summary
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i].Comment, detail.Comments[i].AuthorName))
	}
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(&detail.TicketView),
		Description:   detail.Description,
		Comments:      comments,
		Capabilities:  detail.Capabilities,
	}
}

func commentResponse(comment *domain.Comment, authorName string) dto.CommentResponse {
	if authorName == "" {
		authorName = comment.AuthorID
	}
	return dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Author:    dto.UserRef{ID: comment.AuthorID, Name: authorName},
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

func errorBody(err error) dto.ErrorBody {
	domainErr := apperrors.ToDomainError(err)
	return dto.ErrorBody{Code: domainErr.Code, Message: domainErr.Message, Details: domainErr.Details}
}
