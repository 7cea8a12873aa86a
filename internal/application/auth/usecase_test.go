package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/session"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

type fixture struct {
	uc     *auth.AuthUseCase
	engine *session.Engine
	users  *memory.UserRepo
	audit  *memory.AuditRepo
	admin  *entity.User
}

func newFixture(t *testing.T, policy session.Policy) *fixture {
	t.Helper()
	users := memory.NewUserRepo()
	tokens := memory.NewTokenRepo()
	emisores := memory.NewEmisorRepo(
		entity.Emisor{ID: "emisor-1", RUC: "900111222", RazonSocial: "Uno", Status: "active"},
		entity.Emisor{ID: "emisor-2", RUC: "900333444", RazonSocial: "Dos", Status: "active"},
	)
	engine := session.NewEngine(policy, session.SigningConfig{Secret: "s3cret", Issuer: "test"},
		memory.NewActorRunner(tokens), tokens, users)
	admin := &entity.User{ID: "admin-1", Username: "root", Email: "root@example.com", Role: entity.RoleAdministrador, Status: entity.UserStatusActive}
	require.NoError(t, users.Create(context.Background(), admin))
	audit := memory.NewAuditRepo()
	return &fixture{
		uc:     auth.NewAuthUseCase(users, emisores, audit, engine, zerolog.Nop(), auth.WithBcryptCost(bcrypt.MinCost)),
		engine: engine,
		users:  users,
		audit:  audit,
		admin:  admin,
	}
}

func (f *fixture) denials(t *testing.T, actorID string) []*entity.AuditEntry {
	t.Helper()
	out, err := f.audit.List(context.Background(), repository.AuditFilter{Kind: entity.AuditUserDenied, ActorID: actorID})
	require.NoError(t, err)
	return out
}

func (f *fixture) createUser(t *testing.T, creator *entity.User, username string, role entity.Role, emisorID string) *entity.User {
	t.Helper()
	resp, err := f.uc.CreateUser(context.Background(), creator, dto.CreateUserRequest{
		EmisorID: emisorID,
		Username: username,
		Email:    username + "@example.com",
		Password: "password-123",
		Role:     string(role),
	})
	require.NoError(t, err)
	u, err := f.users.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	return u
}

func TestCreateUser_RespetaJerarquia(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()

	emisor := f.createUser(t, f.admin, "dueno", entity.RoleEmisor, "emisor-1")
	gerente := f.createUser(t, emisor, "gerente", entity.RoleGerente, "")
	assert.Equal(t, "emisor-1", gerente.EmisorID)

	_, err := f.uc.CreateUser(ctx, gerente, dto.CreateUserRequest{
		Username: "otro", Email: "otro@example.com", Password: "password-123", Role: string(entity.RoleEmisor),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.CreateUser(ctx, emisor, dto.CreateUserRequest{
		EmisorID: "emisor-2", Username: "intruso", Email: "intruso@example.com", Password: "password-123", Role: string(entity.RoleCajero),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin2 := f.createUser(t, f.admin, "root2", entity.RoleAdministrador, "")
	assert.Empty(t, admin2.EmisorID)
}

func TestCreateUser_DenegacionesQuedanAuditadas(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()
	emisor := f.createUser(t, f.admin, "dueno", entity.RoleEmisor, "emisor-1")
	gerente := f.createUser(t, emisor, "gerente", entity.RoleGerente, "")
	require.Empty(t, f.denials(t, ""))

	_, err := f.uc.CreateUser(ctx, gerente, dto.CreateUserRequest{
		Username: "otro", Email: "otro@example.com", Password: "password-123", Role: string(entity.RoleEmisor),
	})
	require.ErrorIs(t, err, domain.ErrForbidden)

	got := f.denials(t, gerente.ID)
	require.Len(t, got, 1)
	assert.Equal(t, entity.RoleGerente, got[0].HeldRole)
	assert.Equal(t, string(entity.RoleEmisor), got[0].Resource)
	assert.Equal(t, "create_user", got[0].Method)
	assert.False(t, got[0].At.IsZero())

	_, err = f.uc.CreateUser(ctx, emisor, dto.CreateUserRequest{
		EmisorID: "emisor-2", Username: "intruso", Email: "intruso@example.com", Password: "password-123", Role: string(entity.RoleCajero),
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
	got = f.denials(t, emisor.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "emisor:emisor-2", got[0].Resource)

	_, err = f.uc.CreateUser(ctx, f.admin, dto.CreateUserRequest{
		Username: "x", Email: "x@example.com", Password: "corto", Role: string(entity.RoleCajero), EmisorID: "emisor-1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, f.denials(t, ""), 2)
}

func TestCreateUser_Validaciones(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()
	f.createUser(t, f.admin, "Cajero.Uno", entity.RoleCajero, "emisor-1")

	cases := []struct {
		name string
		in   dto.CreateUserRequest
		want error
	}{
		{"rol desconocido", dto.CreateUserRequest{Username: "x", Email: "x@example.com", Password: "password-123", Role: "superuser", EmisorID: "emisor-1"}, domain.ErrInvalidInput},
		{"username normalizado duplicado", dto.CreateUserRequest{Username: "  CAJERO.UNO ", Email: "nuevo@example.com", Password: "password-123", Role: "cajero", EmisorID: "emisor-1"}, domain.ErrDuplicate},
		{"password corto", dto.CreateUserRequest{Username: "y", Email: "y@example.com", Password: "corto", Role: "cajero", EmisorID: "emisor-1"}, domain.ErrInvalidInput},
		{"sin emisor", dto.CreateUserRequest{Username: "z", Email: "z@example.com", Password: "password-123", Role: "cajero"}, domain.ErrInvalidInput},
		{"emisor inexistente", dto.CreateUserRequest{Username: "w", Email: "w@example.com", Password: "password-123", Role: "cajero", EmisorID: "nadie"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateUser(ctx, f.admin, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()
	f.createUser(t, f.admin, "cajero", entity.RoleCajero, "emisor-1")

	resp, err := f.uc.Login(ctx, dto.LoginRequest{Login: "CAJERO@example.com", Password: "password-123", DeviceName: "caja 1"}, entity.DeviceMeta{UserAgent: "go-test"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "cajero", resp.User.Username)

	user, tok, err := f.engine.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, "caja 1", tok.Device.Name)
	assert.Equal(t, "go-test", tok.Device.UserAgent)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "cajero", Password: "incorrecta"}, entity.DeviceMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "nadie", Password: "password-123"}, entity.DeviceMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()
	u := f.createUser(t, f.admin, "pendiente", entity.RoleCajero, "emisor-1")
	u.Status = entity.UserStatusPendingVerification
	require.NoError(t, f.users.Update(ctx, u))

	_, err := f.uc.Login(ctx, dto.LoginRequest{Login: "pendiente", Password: "password-123"}, entity.DeviceMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	got := f.denials(t, u.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "login", got[0].Method)
}

func TestChangePassword_RevocaSesiones(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()
	u := f.createUser(t, f.admin, "gerente", entity.RoleGerente, "emisor-1")

	first, err := f.uc.Login(ctx, dto.LoginRequest{Login: "gerente", Password: "password-123"}, entity.DeviceMeta{})
	require.NoError(t, err)
	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "gerente", Password: "password-123"}, entity.DeviceMeta{})
	require.NoError(t, err)

	_, err = f.uc.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "mala", NewPassword: "nueva-clave-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	out, err := f.uc.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "password-123", NewPassword: "nueva-clave-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RevokedSessions)

	_, _, err = f.engine.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "gerente", Password: "nueva-clave-1"}, entity.DeviceMeta{})
	assert.NoError(t, err)
}

func TestChangePassword_SinRevocacionPorPolitica(t *testing.T) {
	p := session.DefaultPolicy()
	p.RevokeOnPasswordChange = false
	f := newFixture(t, p)
	ctx := context.Background()
	u := f.createUser(t, f.admin, "gerente", entity.RoleGerente, "emisor-1")
	login, err := f.uc.Login(ctx, dto.LoginRequest{Login: "gerente", Password: "password-123"}, entity.DeviceMeta{})
	require.NoError(t, err)

	out, err := f.uc.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "password-123", NewPassword: "nueva-clave-1"})
	require.NoError(t, err)
	assert.Zero(t, out.RevokedSessions)
	_, _, err = f.engine.ValidateToken(ctx, login.Token)
	assert.NoError(t, err)
}

func TestSessions_LogoutYLogoutAll(t *testing.T) {
	limit := 5
	p := session.DefaultPolicy()
	p.MaxDevices = &limit
	exp := time.Hour
	p.TokenExpiration = &exp
	f := newFixture(t, p)
	ctx := context.Background()
	u := f.createUser(t, f.admin, "cajero", entity.RoleCajero, "emisor-1")

	a, err := f.uc.Login(ctx, dto.LoginRequest{Login: "cajero", Password: "password-123", DeviceName: "a"}, entity.DeviceMeta{})
	require.NoError(t, err)
	require.NotNil(t, a.ExpiresAt)
	b, err := f.uc.Login(ctx, dto.LoginRequest{Login: "cajero", Password: "password-123", DeviceName: "b"}, entity.DeviceMeta{})
	require.NoError(t, err)

	list, err := f.uc.Sessions(ctx, u.ID, b.TokenID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	current := 0
	for _, s := range list {
		if s.Current {
			current++
			assert.Equal(t, b.TokenID, s.ID)
		}
	}
	assert.Equal(t, 1, current)

	assert.ErrorIs(t, f.uc.RevokeSession(ctx, f.admin.ID, a.TokenID), domain.ErrNotFound)
	require.NoError(t, f.uc.Logout(ctx, a.TokenID))
	list, err = f.uc.Sessions(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	all, err := f.uc.LogoutAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, all.RevokedSessions)
}

func TestRoles(t *testing.T) {
	roles := auth.Roles()
	require.Len(t, roles, len(entity.AllRoles()))
	assert.Equal(t, string(entity.RoleAdministrador), roles[0].Role)
	assert.Len(t, roles[0].MayCreate, 5)
	assert.Empty(t, roles[len(roles)-1].MayCreate)
}

func TestListUsers_AlcanceDeEmisor(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	ctx := context.Background()
	emisor := f.createUser(t, f.admin, "dueno", entity.RoleEmisor, "emisor-1")
	f.createUser(t, f.admin, "cajero1", entity.RoleCajero, "emisor-1")
	f.createUser(t, f.admin, "cajero2", entity.RoleCajero, "emisor-2")

	list, err := f.uc.ListUsers(ctx, emisor, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	_, err = f.uc.ListUsers(ctx, emisor, "emisor-2", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	got := f.denials(t, emisor.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "emisor:emisor-2", got[0].Resource)

	list, err = f.uc.ListUsers(ctx, f.admin, "emisor-2", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}
