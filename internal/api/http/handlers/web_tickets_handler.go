package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/tickets/internal/api/dto"
	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
	"github.com/helpdesk-kit/tickets/internal/service"
	"github.com/helpdesk-kit/tickets/internal/view"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

type ticketForm struct {
	Title       string
	Description string
	Priority    string
}

// WebTicketsHandler serves the ticket pages and form actions.
type WebTicketsHandler struct {
	tickets *service.TicketService
	users   repository.UserRepository
	now     func() time.Time
}

// NewWebTicketsHandler constructs handler.
func NewWebTicketsHandler(ticketService *service.TicketService, users repository.UserRepository) *WebTicketsHandler {
	return &WebTicketsHandler{tickets: ticketService, users: users, now: time.Now}
}

// Index GET / lists every ticket.
func (h *WebTicketsHandler) Index(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	tickets, err := h.tickets.ListAll(c.UserContext(), principal)
	if err != nil {
		return PageDenied(c, err)
	}

	views := view.NewTicketViews(tickets, h.now())
	if principal.HasRole(domain.RoleCompany) {
		names, err := h.assigneeNames(c)
		if err != nil {
			return err
		}
		views = view.WithAssignees(views, names)
	}
	return view.Render(c, fiber.StatusOK, "index.html", fiber.Map{"tickets": views})
}

// MyTickets GET /mis_tickets lists the tickets assigned to the current user.
func (h *WebTicketsHandler) MyTickets(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	tickets, err := h.tickets.ListAssigned(c.UserContext(), principal)
	if err != nil {
		return PageDenied(c, err)
	}
	return view.Render(c, fiber.StatusOK, "tickets_usuario.html", fiber.Map{
		"tickets": view.NewTicketViews(tickets, h.now()),
	})
}

// NewTicketForm GET /add_ticket.
func (h *WebTicketsHandler) NewTicketForm(c *fiber.Ctx) error {
	return h.renderTicketForm(c, fiber.StatusOK, ticketForm{Priority: string(domain.TicketPriorityMedium)}, nil)
}

// CreateTicket POST /add_ticket.
func (h *WebTicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	form := ticketForm{Title: req.Title, Description: req.Description, Priority: req.Priority}

	_, err := h.tickets.Create(c.UserContext(), principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeValidationFailed) {
			return h.renderTicketForm(c, fiber.StatusBadRequest, form, formErrors(err))
		}
		return PageDenied(c, err)
	}

	view.AddFlash(c, view.FlashSuccess, "Ticket created successfully.")
	return c.Redirect("/")
}

// UpdateStatus POST /update_status/:id moves the ticket to In-Progress.
func (h *WebTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	return h.statusAction(c, domain.TicketStatusInProgress, view.FlashInfo, "Status updated to In-Progress.")
}

// MarkResolved POST /mark_resolved/:id.
func (h *WebTicketsHandler) MarkResolved(c *fiber.Ctx) error {
	return h.statusAction(c, domain.TicketStatusResolved, view.FlashSuccess, "The ticket was marked as resolved.")
}

// DeleteTicket POST /delete_ticket/:id.
func (h *WebTicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), principal, id); err != nil {
		return PageDenied(c, err)
	}
	view.AddFlash(c, view.FlashDanger, "The ticket was deleted.")
	return c.Redirect("/")
}

func (h *WebTicketsHandler) statusAction(c *fiber.Ctx, status domain.TicketStatus, category, message string) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	if _, err := h.tickets.SetStatus(c.UserContext(), principal, id, status); err != nil {
		return PageDenied(c, err)
	}
	view.AddFlash(c, category, message)
	return c.Redirect("/")
}

func (h *WebTicketsHandler) renderTicketForm(c *fiber.Ctx, status int, form ticketForm, errs map[string]any) error {
	priorities := make([]string, 0, len(domain.TicketPriorities))
	for _, p := range domain.TicketPriorities {
		priorities = append(priorities, string(p))
	}
	return view.Render(c, status, "add_ticket.html", fiber.Map{
		"form":       form,
		"priorities": priorities,
		"errors":     errs,
	})
}

func (h *WebTicketsHandler) assigneeNames(c *fiber.Ctx) (map[int64]string, error) {
	users, err := h.users.ListByRole(c.UserContext(), domain.RoleRegularUser)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
