package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
)

// ReferenceHandler serves lookup lists used to build ticket forms.
type ReferenceHandler struct {
	queries *service.QueryService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(queries *service.QueryService) *ReferenceHandler {
	return &ReferenceHandler{queries: queries}
}

// Reference GET /reference.
func (h *ReferenceHandler) Reference(c *fiber.Ctx) error {
	data, err := h.queries.Reference(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.ReferenceResponse{
		Statuses:   make([]dto.Ref, 0, len(data.Statuses)),
		Priorities: make([]dto.Ref, 0, len(data.Priorities)),
		Categories: data.Categories,
	}
	for _, status := range data.Statuses {
		resp.Statuses = append(resp.Statuses, dto.Ref{ID: int(status.ID), Name: status.Name})
	}
	for _, priority := range data.Priorities {
		resp.Priorities = append(resp.Priorities, dto.Ref{ID: int(priority.ID), Name: priority.Name})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Assignees GET /assignees. Clients offer an empty id to unassign.
func (h *ReferenceHandler) Assignees(c *fiber.Ctx) error {
	users, err := h.queries.ListAssignees(c.UserContext(), auth.CallerFromContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.AssigneeResponse, 0, len(users))
	for i := range users {
		roles := users[i].Roles.Slice()
		names := make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, string(role))
		}
		items = append(items, dto.AssigneeResponse{
			ID:    users[i].ID,
			Name:  users[i].DisplayName(),
			Email: users[i].Email,
			Roles: names,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
