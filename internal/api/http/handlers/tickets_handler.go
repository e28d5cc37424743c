package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/tickets/internal/api/dto"
	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/service"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// TicketsHandler manages the JSON ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
	history *service.HistoryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, historyService *service.HistoryService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, history: historyService}
}

// ListTickets GET /api/v1/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	tickets, err := h.service.ListAll(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// ListMyTickets GET /api/v1/tickets/mine.
func (h *TicketsHandler) ListMyTickets(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	tickets, err := h.service.ListAssigned(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// GetTicket GET /api/v1/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CreateTicket POST /api/v1/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateStatus POST /api/v1/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.SetStatus(c.UserContext(), principal, id, domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /api/v1/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// LogUser POST /log_user accepts tickets reported by the browser extension.
func (h *TicketsHandler) LogUser(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.LogUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), principal, service.TicketCreateInput{
		Title:       req.Problema,
		Description: req.Descripcion,
		Priority:    domain.TicketPriorityMedium,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// TicketHistory GET /api/v1/tickets/:id/history.
func (h *TicketsHandler) TicketHistory(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	entries, err := h.history.ListForTicket(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketHistoryResponses(entries)})
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
	}
	return int64(id), nil
}
