package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// WorkSessionsHandler exposes time tracking endpoints.
type WorkSessionsHandler struct {
	service *service.LifecycleService
}

// NewWorkSessionsHandler constructs handler.
func NewWorkSessionsHandler(lifecycleService *service.LifecycleService) *WorkSessionsHandler {
	return &WorkSessionsHandler{service: lifecycleService}
}

// StartWork POST /tickets/:id/work-sessions.
func (h *WorkSessionsHandler) StartWork(c *fiber.Ctx) error {
	var req dto.StartWorkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	session, err := h.service.StartWork(c.UserContext(), auth.CurrentUser(c), c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewWorkSessionResponse(session)})
}

// StopWork POST /work-sessions/:id/stop.
func (h *WorkSessionsHandler) StopWork(c *fiber.Ctx) error {
	session, err := h.service.StopWork(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkSessionResponse(session)})
}

// Active GET /work-sessions/active.
func (h *WorkSessionsHandler) Active(c *fiber.Ctx) error {
	active, err := h.service.GetActiveSession(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	if active == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": newActiveSessionResponse(active)})
}

// ActiveForTicket GET /tickets/:id/work-sessions/active.
func (h *WorkSessionsHandler) ActiveForTicket(c *fiber.Ctx) error {
	active, err := h.service.GetTicketActiveSession(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	if active == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": newActiveSessionResponse(active)})
}

func newActiveSessionResponse(active *service.ActiveSession) dto.ActiveSessionResponse {
	return dto.ActiveSessionResponse{
		WorkSessionResponse: dto.NewWorkSessionResponse(&active.Session),
		ElapsedMinutes:      active.ElapsedMinutes,
	}
}

// List GET /work-sessions.
func (h *WorkSessionsHandler) List(c *fiber.Ctx) error {
	query := service.WorkSessionQuery{
		TicketID: optionalQuery(c, "ticket_id"),
		UserID:   optionalQuery(c, "user_id"),
		OpenOnly: c.QueryBool("open", false),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	}
	sessions, err := h.service.ListWorkSessions(c.UserContext(), auth.CurrentUser(c), query)
	if err != nil {
		return err
	}
	items := make([]dto.WorkSessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, dto.NewWorkSessionResponse(&sessions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListForTicket GET /tickets/:id/work-sessions.
func (h *WorkSessionsHandler) ListForTicket(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	sessions, err := h.service.ListWorkSessions(c.UserContext(), auth.CurrentUser(c), service.WorkSessionQuery{
		TicketID: &ticketID,
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}
	items := make([]dto.WorkSessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, dto.NewWorkSessionResponse(&sessions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	return &val
}

