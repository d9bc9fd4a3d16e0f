package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// AuditHandler exposes the read-only audit trail.
type AuditHandler struct {
	service *service.LifecycleService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(lifecycleService *service.LifecycleService) *AuditHandler {
	return &AuditHandler{service: lifecycleService}
}

// List GET /audit-records?ticket_id=&user_id=&action=a,b&from=&to=.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	query, err := parseAuditQuery(c)
	if err != nil {
		return err
	}
	return h.respond(c, query)
}

// ListForTicket GET /tickets/:id/audit-records.
func (h *AuditHandler) ListForTicket(c *fiber.Ctx) error {
	query, err := parseAuditQuery(c)
	if err != nil {
		return err
	}
	ticketID := c.Params("id")
	query.TicketID = &ticketID
	return h.respond(c, query)
}

func (h *AuditHandler) respond(c *fiber.Ctx, query service.AuditQuery) error {
	records, err := h.service.ListAuditRecords(c.UserContext(), auth.CurrentUser(c), query)
	if err != nil {
		return err
	}
	items := make([]dto.AuditRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.NewAuditRecordResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseAuditQuery(c *fiber.Ctx) (service.AuditQuery, error) {
	query := service.AuditQuery{
		TicketID: optionalQuery(c, "ticket_id"),
		ActorID:  optionalQuery(c, "user_id"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	}
	if raw := c.Query("action"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Actions = append(query.Actions, domain.AuditAction(part))
			}
		}
	}
	var err error
	if query.From, err = parseTimeParam(c, "from"); err != nil {
		return query, err
	}
	if query.To, err = parseTimeParam(c, "to"); err != nil {
		return query, err
	}
	return query, nil
}

func parseTimeParam(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid time", map[string]any{key: "must be RFC3339"})
	}
	return &parsed, nil
}
