package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// AuthHandler maneja login, cierre de sesión, contraseña y sesiones activas.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username o email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Login == "" || in.Password == "" {
		return badRequest(c, "VALIDATION", "login y password son requeridos")
	}
	device := entity.DeviceMeta{
		Name:      in.DeviceName,
		UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
		IPAddress: utils.CopyString(c.IP()),
	}
	out, err := h.uc.Login(c.UserContext(), in, device)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Logout godoc
// @Summary      Cerrar la sesión actual
// @Tags         auth
// @Security     Bearer
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.uc.Logout(c.UserContext(), GetTokenID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LogoutAll godoc
// @Summary      Cerrar todas las sesiones del usuario
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LogoutAllResponse
// @Router       /api/auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	out, err := h.uc.LogoutAll(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ChangePassword godoc
// @Summary      Cambiar contraseña
// @Tags         auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChangePasswordRequest  true  "contraseña actual y nueva"
// @Success      200   {object}  dto.ChangePasswordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/password [put]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in dto.ChangePasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.ChangePassword(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Perfil del usuario autenticado
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Sessions godoc
// @Summary      Sesiones activas del usuario
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SessionResponse
// @Router       /api/auth/sessions [get]
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	out, err := h.uc.Sessions(c.UserContext(), GetUserID(c), GetTokenID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RevokeSession godoc
// @Summary      Revocar una sesión propia
// @Tags         auth
// @Security     Bearer
// @Param        id   path  string  true  "ID de la sesión"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/auth/sessions/{id} [delete]
func (h *AuthHandler) RevokeSession(c *fiber.Ctx) error {
	if err := h.uc.RevokeSession(c.UserContext(), GetUserID(c), param(c, "id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
