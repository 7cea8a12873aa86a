package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// UserHandler altas y listados de usuarios según la jerarquía de roles.
type UserHandler struct {
	uc *auth.AuthUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *auth.AuthUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// Create godoc
// @Summary      Crear usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "Datos del usuario"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.CreateUser(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar usuarios de un emisor
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        emisor_id  query  string  false  "Emisor (solo roles administrativos)"
// @Param        limit      query  int     false  "Límite"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.UserListResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros de paginación inválidos")
	}
	out, err := h.uc.ListUsers(c.UserContext(), GetActor(c), query(c, "emisor_id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Roles godoc
// @Summary      Jerarquía de roles
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.RoleResponse
// @Router       /api/roles [get]
func (h *UserHandler) Roles(c *fiber.Ctx) error {
	return c.JSON(auth.Roles())
}
