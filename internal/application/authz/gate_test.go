package authz_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/authz"
	"github.com/jhoicas/Facturacion-api/internal/application/session"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

func TestDecide(t *testing.T) {
	cajero := &entity.User{ID: "u1", Role: entity.RoleCajero}
	admin := &entity.User{ID: "u2", Role: entity.RoleAdministrador}

	cases := []struct {
		name  string
		err   error
		actor *entity.User
		req   authz.Requirement
		want  authz.Outcome
	}{
		{"sin token", domain.ErrUnauthenticated, nil, authz.Authenticated(), authz.Unauthenticated},
		{"token inválido con rol exigido", domain.ErrUnauthenticated, nil, authz.AnyOf(entity.RoleCajero), authz.Unauthenticated},
		{"autenticado sin requisito", nil, cajero, authz.Authenticated(), authz.Authorized},
		{"rol en el conjunto", nil, cajero, authz.AnyOf(entity.RoleCajero, entity.RoleGerente), authz.Authorized},
		{"rol fuera del conjunto", nil, cajero, authz.AnyOf(entity.RoleAdministrador), authz.Forbidden},
		{"rango superior no basta", nil, admin, authz.AnyOf(entity.RoleCajero), authz.Forbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := authz.Decide(tc.err, tc.actor, tc.req)
			assert.Equal(t, tc.want, d.Outcome, d.Outcome.String())
		})
	}
}

type gateFixture struct {
	gate   *authz.Gate
	audit  *memory.AuditRepo
	secret string
}

func newGateFixture(t *testing.T, role entity.Role) *gateFixture {
	t.Helper()
	users := memory.NewUserRepo()
	tokens := memory.NewTokenRepo()
	actor := &entity.User{ID: "actor-1", Username: "u", Email: "u@x", Role: role, Status: entity.UserStatusActive}
	require.NoError(t, users.Create(context.Background(), actor))

	engine := session.NewEngine(session.DefaultPolicy(), session.SigningConfig{Secret: "s", Issuer: "i"},
		memory.NewActorRunner(tokens), tokens, users)
	issued, err := engine.IssueToken(context.Background(), actor, entity.DeviceMeta{})
	require.NoError(t, err)

	audit := memory.NewAuditRepo()
	return &gateFixture{
		gate:   authz.NewGate(engine, audit, zerolog.Nop()),
		audit:  audit,
		secret: issued.Secret,
	}
}

func TestGate_CajeroEnRutaDeAdministrador(t *testing.T) {
	f := newGateFixture(t, entity.RoleCajero)

	_, err := f.gate.Authorize(context.Background(), authz.Request{
		Secret: f.secret, Method: "GET", Path: "/api/audit",
		Requirement: authz.AnyOf(entity.RoleAdministrador),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	entries, err := f.audit.List(context.Background(), repository.AuditFilter{Kind: entity.AuditAuthzDenied})
	require.NoError(t, err)
	require.Len(t, entries, 1, "la denegación queda registrada")
	e := entries[0]
	assert.Equal(t, "actor-1", e.ActorID)
	assert.Equal(t, entity.RoleCajero, e.HeldRole)
	assert.Equal(t, []entity.Role{entity.RoleAdministrador}, e.RequiredRoles)
	assert.Equal(t, "/api/audit", e.Path)

	res, err := f.gate.Authorize(context.Background(), authz.Request{
		Secret: f.secret, Path: "/api/ventas",
		Requirement: authz.AnyOf(entity.RoleCajero, entity.RoleGerente),
	})
	require.NoError(t, err)
	assert.Equal(t, "actor-1", res.Actor.ID)
	assert.NotNil(t, res.Token)
}

func TestGate_SinTokenOInvalido(t *testing.T) {
	f := newGateFixture(t, entity.RoleGerente)

	_, err := f.gate.Authorize(context.Background(), authz.Request{Path: "/x"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.gate.Authorize(context.Background(), authz.Request{Secret: "basura", Path: "/x",
		Requirement: authz.AnyOf(entity.RoleAdministrador)})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "sin autenticación no se evalúa el rol")
	assert.False(t, errors.Is(err, domain.ErrForbidden))

	entries, _ := f.audit.List(context.Background(), repository.AuditFilter{})
	assert.Empty(t, entries, "401 no se audita como denegación de rol")
}

type failingValidator struct{}

func (failingValidator) ValidateToken(ctx context.Context, secret string) (*entity.User, *entity.AccessToken, error) {
	return nil, nil, fmt.Errorf("leer token: %w: conexión rechazada", domain.ErrUnavailable)
}

func TestGate_FalloDeInfraestructuraNoEsUnauthenticated(t *testing.T) {
	g := authz.NewGate(failingValidator{}, memory.NewAuditRepo(), zerolog.Nop())
	_, err := g.Authorize(context.Background(), authz.Request{Secret: "x", Path: "/x"})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.False(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestGate_DenyRegistraRecursoAjeno(t *testing.T) {
	f := newGateFixture(t, entity.RoleEmisor)
	actor := &entity.User{ID: "actor-1", Role: entity.RoleEmisor, EmisorID: "emisor-1"}

	err := f.gate.Deny(context.Background(), actor, "GET", "/api/subscriptions", "emisor:emisor-2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	entries, err := f.audit.List(context.Background(), repository.AuditFilter{Kind: entity.AuditAuthzDenied})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.RoleEmisor, entries[0].HeldRole)
	assert.Equal(t, "emisor:emisor-2", entries[0].Resource)
	assert.Equal(t, "/api/subscriptions", entries[0].Path)

	assert.ErrorIs(t, f.gate.Deny(context.Background(), nil, "GET", "/x", "y"), domain.ErrUnauthenticated)
}
