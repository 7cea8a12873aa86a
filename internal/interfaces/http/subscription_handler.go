package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Facturacion-api/internal/application/authz"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/subscription"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// SubscriptionHandler expone la máquina de estados de suscripciones.
type SubscriptionHandler struct {
	svc  *subscription.Service
	gate *authz.Gate
}

// NewSubscriptionHandler construye el handler. gate registra las denegaciones por emisor ajeno.
func NewSubscriptionHandler(svc *subscription.Service, gate *authz.Gate) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, gate: gate}
}

// Create godoc
// @Summary      Asociar un emisor a un plan
// @Tags         subscriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSubscriptionRequest  true  "emisor_id, plan_id"
// @Success      201   {object}  dto.SubscriptionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/subscriptions [post]
func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSubscriptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	input := subscription.CreateInput{EmisorID: in.EmisorID, PlanID: in.PlanID, Notes: in.Notes}
	if in.StartDate != nil {
		input.StartDate = *in.StartDate
	}
	sub, err := h.svc.Create(c.UserContext(), input, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSubscriptionResponse(sub))
}

// List godoc
// @Summary      Suscripciones de un emisor
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Param        emisor_id  query  string  false  "Emisor (obligatorio para roles administrativos)"
// @Success      200  {array}  dto.SubscriptionResponse
// @Router       /api/subscriptions [get]
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	emisorID := query(c, "emisor_id")
	if actor := GetActor(c); !actor.Role.IsAdministrative() {
		if emisorID != "" && emisorID != actor.EmisorID {
			return respondError(c, h.gate.Deny(c.UserContext(), actor, c.Method(), utils.CopyString(c.Path()), "emisor:"+emisorID))
		}
		emisorID = actor.EmisorID
	}
	if emisorID == "" {
		return badRequest(c, "VALIDATION", "emisor_id es requerido")
	}
	list, err := h.svc.ListByEmisor(c.UserContext(), emisorID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.SubscriptionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSubscriptionResponse(s))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener suscripción
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la suscripción"
// @Success      200  {object}  dto.SubscriptionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/subscriptions/{id} [get]
func (h *SubscriptionHandler) GetByID(c *fiber.Ctx) error {
	sub, err := h.visible(c, param(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// Transitions godoc
// @Summary      Transiciones disponibles
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la suscripción"
// @Success      200  {object}  dto.TransitionsResponse
// @Router       /api/subscriptions/{id}/transitions [get]
func (h *SubscriptionHandler) Transitions(c *fiber.Ctx) error {
	id := param(c, "id")
	sub, err := h.visible(c, id)
	if err != nil {
		return respondError(c, err)
	}
	avail, err := h.svc.AvailableTransitions(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	names := make([]string, 0, len(avail))
	for _, s := range avail {
		names = append(names, string(s))
	}
	return c.JSON(dto.TransitionsResponse{State: string(sub.State), Available: names})
}

// ChangeState godoc
// @Summary      Cambiar estado
// @Tags         subscriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la suscripción"
// @Param        body  body  dto.ChangeStateRequest  true  "estado destino"
// @Success      200   {object}  dto.SubscriptionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/subscriptions/{id}/state [post]
func (h *SubscriptionHandler) ChangeState(c *fiber.Ctx) error {
	var in dto.ChangeStateRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.State == "" {
		return badRequest(c, "VALIDATION", "state es requerido")
	}
	sub, err := h.svc.ChangeState(c.UserContext(), param(c, "id"), entity.SubscriptionState(in.State), GetUserID(c), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// Update godoc
// @Summary      Editar campos permitidos por el estado actual
// @Tags         subscriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID de la suscripción"
// @Param        body  body  dto.UpdateSubscriptionRequest  true  "campos a modificar"
// @Success      200   {object}  dto.SubscriptionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/subscriptions/{id} [patch]
func (h *SubscriptionHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSubscriptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	patch := subscription.FieldPatch{PlanID: in.PlanID, StartDate: in.StartDate, EndDate: in.EndDate, Notes: in.Notes}
	sub, err := h.svc.UpdateFields(c.UserContext(), param(c, "id"), patch, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// History godoc
// @Summary      Historial de estados
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la suscripción"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/subscriptions/{id}/historial [get]
func (h *SubscriptionHandler) History(c *fiber.Ctx) error {
	id := param(c, "id")
	sub, err := h.visible(c, id)
	if err != nil {
		return respondError(c, err)
	}
	records, err := h.svc.History(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.TransitionRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.TransitionRecordResponse{
			Seq:     r.Seq,
			From:    string(r.From),
			To:      string(r.To),
			ActorID: r.ActorID,
			Reason:  r.Reason,
			At:      r.At,
		})
	}
	return c.JSON(dto.HistoryResponse{SubscriptionID: id, State: string(sub.State), Items: items})
}

// Plans godoc
// @Summary      Catálogo de planes activos
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PlanResponse
// @Router       /api/plans [get]
func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	plans, err := h.svc.ListPlans(c.UserContext(), true)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, dto.PlanResponse{
			ID: p.ID, Code: p.Code, Name: p.Name,
			PeriodMonths: p.PeriodMonths, PeriodDays: p.PeriodDays,
			Price: p.Price, Active: p.Active,
		})
	}
	return c.JSON(out)
}

// visible carga la suscripción; para roles de panel de emisor una suscripción ajena no existe.
func (h *SubscriptionHandler) visible(c *fiber.Ctx, id string) (*entity.Subscription, error) {
	sub, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if actor := GetActor(c); !actor.Role.IsAdministrative() && sub.EmisorID != actor.EmisorID {
		return nil, fmt.Errorf("suscripción %s: %w", id, domain.ErrNotFound)
	}
	return sub, nil
}

func toSubscriptionResponse(s *entity.Subscription) dto.SubscriptionResponse {
	fields := s.EditableFields
	if fields == nil {
		fields = []string{}
	}
	return dto.SubscriptionResponse{
		ID:             s.ID,
		EmisorID:       s.EmisorID,
		PlanID:         s.PlanID,
		State:          string(s.State),
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		Notes:          s.Notes,
		EditableFields: fields,
		StateChangedAt: s.StateChangedAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
