package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Facturacion-api/internal/application/authz"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// Locals keys que deja el middleware de autorización en Fiber.
const (
	LocalUserID   = "user_id"
	LocalEmisorID = "emisor_id"
	LocalRole     = "role"
	LocalTokenID  = "token_id"
	LocalActor    = "actor"
)

// AuthMiddleware exige un Bearer token válido sin restricción de rol.
func AuthMiddleware(gate *authz.Gate) fiber.Handler {
	return Authorize(gate)
}

// Authorize valida el Bearer token con la compuerta y exige que el rol del actor esté en roles
// (lista vacía = cualquier actor autenticado). Responde 401, 403 o 503 según el resultado.
func Authorize(gate *authz.Gate, roles ...entity.Role) fiber.Handler {
	req := authz.AnyOf(roles...)
	return func(c *fiber.Ctx) error {
		secret, code, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: "Authorization: Bearer <token> requerido"})
		}
		res, err := gate.Authorize(c.UserContext(), authz.Request{
			Secret:      secret,
			Method:      c.Method(),
			Path:        utils.CopyString(c.Path()),
			Requirement: req,
		})
		if err != nil {
			return respondError(c, err)
		}
		c.Locals(LocalActor, res.Actor)
		c.Locals(LocalUserID, res.Actor.ID)
		c.Locals(LocalEmisorID, res.Actor.EmisorID)
		c.Locals(LocalRole, string(res.Actor.Role))
		if res.Token != nil {
			c.Locals(LocalTokenID, res.Token.ID)
		}
		return c.Next()
	}
}

func bearerToken(header string) (token, code string, ok bool) {
	if header == "" {
		return "", "MISSING_TOKEN", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "INVALID_TOKEN", false
	}
	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "MISSING_TOKEN", false
	}
	return token, "", true
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetEmisorID devuelve el emisor del actor; vacío para roles administrativos.
func GetEmisorID(c *fiber.Ctx) string { return localString(c, LocalEmisorID) }

// GetRole devuelve el rol del actor.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetTokenID devuelve el id de la sesión actual.
func GetTokenID(c *fiber.Ctx) string { return localString(c, LocalTokenID) }

// GetActor devuelve el actor autenticado o nil.
func GetActor(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalActor).(*entity.User)
	return u
}
