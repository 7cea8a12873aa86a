// Package authz decide, por petición, si un actor puede acceder a una ruta: combina el estado de
// autenticación (validación del token) con la lista exacta de roles declarada por la ruta.
package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// Outcome resultado de la decisión.
type Outcome int

const (
	Authorized Outcome = iota
	Unauthenticated
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Requirement requisito declarado por la ruta. Roles vacío = basta con estar autenticado.
type Requirement struct {
	Roles []entity.Role
}

// Authenticated requisito sin restricción de rol.
func Authenticated() Requirement { return Requirement{} }

// AnyOf requisito de rol por coincidencia exacta.
func AnyOf(roles ...entity.Role) Requirement { return Requirement{Roles: roles} }

// Decision resultado de Decide.
type Decision struct {
	Outcome Outcome
	Actor   *entity.User
}

// Decide es la función pura de autorización: no consulta almacenes ni reintenta.
// validationErr es el resultado de validar el token (nil = válido y actor resuelto).
func Decide(validationErr error, actor *entity.User, req Requirement) Decision {
	if validationErr != nil || actor == nil {
		return Decision{Outcome: Unauthenticated}
	}
	if len(req.Roles) > 0 && !actor.Role.In(req.Roles) {
		return Decision{Outcome: Forbidden, Actor: actor}
	}
	return Decision{Outcome: Authorized, Actor: actor}
}

// TokenValidator resuelve el actor de un secreto presentado (lo implementa *session.Engine).
type TokenValidator interface {
	ValidateToken(ctx context.Context, secret string) (*entity.User, *entity.AccessToken, error)
}

// Request datos de la petición que necesita la compuerta.
type Request struct {
	Secret      string // vacío = sin token
	Method      string
	Path        string
	Requirement Requirement
}

// Result actor y token resueltos para peticiones autorizadas.
type Result struct {
	Actor *entity.User
	Token *entity.AccessToken
}

// Gate compuerta de autorización. Registra cada denegación Forbidden antes de devolverla.
type Gate struct {
	validator TokenValidator
	audit     repository.AuditRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewGate construye la compuerta.
func NewGate(validator TokenValidator, audit repository.AuditRepository, log zerolog.Logger) *Gate {
	return &Gate{validator: validator, audit: audit, log: log, now: time.Now}
}

// Authorize devuelve el actor autorizado, o domain.ErrUnauthenticated / domain.ErrForbidden.
// Un fallo de infraestructura al validar se devuelve envuelto en domain.ErrUnavailable.
func (g *Gate) Authorize(ctx context.Context, req Request) (*Result, error) {
	var (
		actor *entity.User
		tok   *entity.AccessToken
		err   error
	)
	if req.Secret == "" {
		err = fmt.Errorf("sin token: %w", domain.ErrUnauthenticated)
	} else {
		actor, tok, err = g.validator.ValidateToken(ctx, req.Secret)
		if err != nil && errors.Is(err, domain.ErrUnavailable) {
			return nil, err
		}
	}

	d := Decide(err, actor, req.Requirement)
	switch d.Outcome {
	case Unauthenticated:
		return nil, fmt.Errorf("authz: %w", domain.ErrUnauthenticated)
	case Forbidden:
		g.recordDenial(ctx, req, actor, "")
		return nil, fmt.Errorf("authz: rol %s no permitido en %s: %w", actor.Role, req.Path, domain.ErrForbidden)
	}
	return &Result{Actor: d.Actor, Token: tok}, nil
}

// Deny registra una denegación decidida por el handler sobre resource (p. ej. un emisor ajeno)
// y devuelve domain.ErrForbidden.
func (g *Gate) Deny(ctx context.Context, actor *entity.User, method, path, resource string) error {
	if actor == nil {
		return fmt.Errorf("authz: %w", domain.ErrUnauthenticated)
	}
	g.recordDenial(ctx, Request{Method: method, Path: path}, actor, resource)
	return fmt.Errorf("authz: %s fuera del alcance de %s: %w", resource, actor.ID, domain.ErrForbidden)
}

func (g *Gate) recordDenial(ctx context.Context, req Request, actor *entity.User, resource string) {
	entry := &entity.AuditEntry{
		ID:            uuid.NewString(),
		Kind:          entity.AuditAuthzDenied,
		ActorID:       actor.ID,
		HeldRole:      actor.Role,
		RequiredRoles: append([]entity.Role(nil), req.Requirement.Roles...),
		Method:        req.Method,
		Path:          req.Path,
		Resource:      resource,
		At:            g.now(),
	}
	g.log.Warn().
		Str("actor_id", actor.ID).
		Str("role", string(actor.Role)).
		Interface("required", req.Requirement.Roles).
		Str("path", req.Path).
		Str("resource", resource).
		Msg("acceso denegado")
	if err := g.audit.Record(ctx, entry); err != nil {
		// La denegación se mantiene aunque falle el registro.
		g.log.Error().Err(err).Str("actor_id", actor.ID).Msg("registrar denegación")
	}
}
