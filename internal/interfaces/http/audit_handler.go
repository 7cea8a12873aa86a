package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// AuditHandler consulta el rastro de auditoría (solo administrador).
type AuditHandler struct {
	repo repository.AuditRepository
}

// NewAuditHandler construye el handler.
func NewAuditHandler(repo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary      Rastro de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        kind      query  string  false  "authz_denied | illegal_transition"
// @Param        actor_id  query  string  false  "Actor"
// @Param        since     query  string  false  "RFC3339"
// @Param        limit     query  int     false  "Límite (default 100)"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	f := repository.AuditFilter{Kind: q.Kind, ActorID: q.ActorID, Limit: q.Limit}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if q.Since != "" {
		since, err := time.Parse(time.RFC3339, q.Since)
		if err != nil {
			return badRequest(c, "VALIDATION", "since debe ser RFC3339")
		}
		f.Since = since
	}
	entries, err := h.repo.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, fmt.Errorf("listar auditoría: %w: %w", domain.ErrUnavailable, err))
	}
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		roles := make([]string, 0, len(e.RequiredRoles))
		for _, r := range e.RequiredRoles {
			roles = append(roles, string(r))
		}
		out = append(out, dto.AuditEntryResponse{
			ID:            e.ID,
			Kind:          e.Kind,
			ActorID:       e.ActorID,
			HeldRole:      string(e.HeldRole),
			RequiredRoles: roles,
			Method:        e.Method,
			Path:          e.Path,
			Resource:      e.Resource,
			Detail:        e.Detail,
			At:            e.At,
		})
	}
	return c.JSON(out)
}
