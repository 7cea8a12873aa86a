package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: un error de infraestructura puede envolver también a otro sentinel.
var errorMappings = []errorMapping{
	{domain.ErrUnavailable, fiber.StatusServiceUnavailable, "UNAVAILABLE"},
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrSessionLimitExceeded, fiber.StatusConflict, "SESSION_LIMIT_EXCEEDED"},
	{domain.ErrIllegalTransition, fiber.StatusConflict, "ILLEGAL_TRANSITION"},
	{domain.ErrFieldNotEditable, fiber.StatusConflict, "FIELD_NOT_EDITABLE"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
}

// StatusFor traduce un error de dominio a status HTTP y código.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError escribe dto.ErrorResponse. Los 5xx no exponen el detalle interno.
func respondError(c *fiber.Ctx, err error) error {
	status, code := StatusFor(err)
	msg := err.Error()
	switch {
	case status == fiber.StatusServiceUnavailable:
		msg = domain.ErrUnavailable.Error()
	case status >= fiber.StatusInternalServerError:
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// param copia el parámetro de ruta; fasthttp reutiliza el buffer al terminar la petición.
func param(c *fiber.Ctx, name string) string {
	return utils.CopyString(c.Params(name))
}

func query(c *fiber.Ctx, name string) string {
	return utils.CopyString(c.Query(name))
}
