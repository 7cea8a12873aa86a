package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/ports"
	"github.com/jhoicas/Facturacion-api/internal/application/session"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance mueve el reloj. issue() avanza 1s para que cada CreatedAt sea distinto.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ports.LoginEvent
	err    error
}

func (n *recordingNotifier) NotifyNewLogin(ctx context.Context, ev ports.LoginEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fixture struct {
	engine   *session.Engine
	tokens   *memory.TokenRepo
	users    *memory.UserRepo
	clock    *fakeClock
	notifier *recordingNotifier
	actor    *entity.User
}

func newFixture(t *testing.T, policy session.Policy) *fixture {
	t.Helper()
	f := &fixture{
		tokens:   memory.NewTokenRepo(),
		users:    memory.NewUserRepo(),
		clock:    &fakeClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	f.actor = &entity.User{
		ID: "user-1", Username: "cajero1", Email: "cajero1@example.com",
		Role: entity.RoleCajero, Status: entity.UserStatusActive, EmisorID: "emisor-1",
	}
	require.NoError(t, f.users.Create(context.Background(), f.actor))

	f.engine = session.NewEngine(policy,
		session.SigningConfig{Secret: "test-secret", Issuer: "test"},
		memory.NewActorRunner(f.tokens), f.tokens, f.users,
		session.WithClock(f.clock.Now),
		session.WithNotifier(f.notifier),
	)
	return f
}

func (f *fixture) issue(t *testing.T) *session.IssuedToken {
	t.Helper()
	f.clock.Advance(time.Second)
	out, err := f.engine.IssueToken(context.Background(), f.actor, entity.DeviceMeta{Name: "caja"})
	require.NoError(t, err)
	return out
}

func (f *fixture) validCount(t *testing.T, issued []*session.IssuedToken) int {
	t.Helper()
	n := 0
	for _, it := range issued {
		if _, _, err := f.engine.ValidateToken(context.Background(), it.Secret); err == nil {
			n++
		}
	}
	return n
}

func intPtr(n int) *int { return &n }

// ──────────────────────────────────────────────────────────────────────────────
// IssueToken
// ──────────────────────────────────────────────────────────────────────────────

func TestIssueToken_ExpulsaElMasAntiguoAlSuperarLimite(t *testing.T) {
	p := session.DefaultPolicy()
	p.MaxDevices = intPtr(3)
	f := newFixture(t, p)

	var issued []*session.IssuedToken
	for i := 0; i < 4; i++ {
		issued = append(issued, f.issue(t))
	}

	assert.Equal(t, 3, f.validCount(t, issued), "deben quedar exactamente N tokens válidos")
	_, _, err := f.engine.ValidateToken(context.Background(), issued[0].Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "el expulsado es el creado primero")
	assert.Equal(t, []string{issued[0].Token.ID}, issued[3].Evicted)

	old, err := f.tokens.GetByID(context.Background(), issued[0].Token.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RevokeReasonDeviceLimit, old.RevokeReason)
}

func TestIssueToken_LimiteCeroSeTomaComoUno(t *testing.T) {
	for _, n := range []int{0, -2} {
		p := session.DefaultPolicy()
		p.MaxDevices = intPtr(n)
		f := newFixture(t, p)
		require.NotNil(t, f.engine.Policy().MaxDevices)
		assert.Equal(t, 1, *f.engine.Policy().MaxDevices)

		var issued []*session.IssuedToken
		require.NotPanics(t, func() {
			issued = append(issued, f.issue(t), f.issue(t))
		})
		assert.Equal(t, 1, f.validCount(t, issued))
		assert.Equal(t, []string{issued[0].Token.ID}, issued[1].Evicted)
	}
}

func TestIssueToken_DesempateDeExpulsionPorID(t *testing.T) {
	p := session.DefaultPolicy()
	p.MaxDevices = intPtr(2)
	f := newFixture(t, p)

	ids := []string{"b-token", "a-token", "c-token"}
	i := 0
	f.engine = session.NewEngine(p, session.SigningConfig{Secret: "test-secret", Issuer: "test"},
		memory.NewActorRunner(f.tokens), f.tokens, f.users,
		session.WithClock(f.clock.Now), // reloj fijo: mismo CreatedAt
		session.WithIDGenerator(func() string { id := ids[i]; i++; return id }),
	)
	for range ids {
		_, err := f.engine.IssueToken(context.Background(), f.actor, entity.DeviceMeta{})
		require.NoError(t, err)
	}

	a, _ := f.tokens.GetByID(context.Background(), "a-token")
	b, _ := f.tokens.GetByID(context.Background(), "b-token")
	assert.True(t, a.Revoked(), "con CreatedAt igual se expulsa el ID menor")
	assert.False(t, b.Revoked())
}

func TestIssueToken_LimiteSinExpulsionFalla(t *testing.T) {
	p := session.DefaultPolicy()
	p.MaxDevices = intPtr(2)
	p.RevokeOldestOnLimit = false
	f := newFixture(t, p)

	issued := []*session.IssuedToken{f.issue(t), f.issue(t)}

	_, err := f.engine.IssueToken(context.Background(), f.actor, entity.DeviceMeta{})
	assert.ErrorIs(t, err, domain.ErrSessionLimitExceeded)
	assert.Equal(t, 2, f.validCount(t, issued), "los tokens existentes no se tocan")

	all, _ := f.tokens.ListByActor(context.Background(), f.actor.ID)
	assert.Len(t, all, 2)
}

func TestIssueToken_SesionUnicaInvalidaDispositivoAnterior(t *testing.T) {
	p := session.DefaultPolicy()
	p.AllowMultipleSessions = false
	f := newFixture(t, p)

	ta := f.issue(t)
	_, _, err := f.engine.ValidateToken(context.Background(), ta.Secret)
	require.NoError(t, err)

	tb := f.issue(t)
	_, _, err = f.engine.ValidateToken(context.Background(), ta.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "TA debe quedar invalidado al iniciar en B")
	_, _, err = f.engine.ValidateToken(context.Background(), tb.Secret)
	assert.NoError(t, err)
}

func TestIssueToken_TokensVencidosNoCuentanParaElLimite(t *testing.T) {
	p := session.DefaultPolicy()
	p.MaxDevices = intPtr(1)
	p.RevokeOldestOnLimit = false
	exp := 10 * time.Minute
	p.TokenExpiration = &exp
	f := newFixture(t, p)

	f.issue(t)
	f.clock.Advance(11 * time.Minute)
	_, err := f.engine.IssueToken(context.Background(), f.actor, entity.DeviceMeta{})
	assert.NoError(t, err)
}

func TestIssueToken_LimiteConcurrenteNuncaSeExcede(t *testing.T) {
	p := session.DefaultPolicy()
	p.MaxDevices = intPtr(2)
	p.RevokeOldestOnLimit = false
	f := newFixture(t, p)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, limited := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.IssueToken(context.Background(), f.actor, entity.DeviceMeta{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrSessionLimitExceeded):
				limited++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, ok)
	assert.Equal(t, 14, limited)
}

func TestIssueToken_AplicaExpiracion(t *testing.T) {
	p := session.DefaultPolicy()
	exp := 30 * time.Minute
	p.TokenExpiration = &exp
	f := newFixture(t, p)

	it := f.issue(t)
	require.NotNil(t, it.Token.ExpiresAt)
	assert.Equal(t, it.Token.CreatedAt.Add(exp), *it.Token.ExpiresAt)

	f.clock.Advance(29 * time.Minute)
	_, _, err := f.engine.ValidateToken(context.Background(), it.Secret)
	assert.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, _, err = f.engine.ValidateToken(context.Background(), it.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestIssueToken_SinExpiracionNuncaVence(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	it := f.issue(t)
	assert.Nil(t, it.Token.ExpiresAt)

	f.clock.Advance(5 * 365 * 24 * time.Hour)
	_, _, err := f.engine.ValidateToken(context.Background(), it.Secret)
	assert.NoError(t, err)
}

func TestIssueToken_NoGuardaElSecretoEnPlano(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	it := f.issue(t)
	stored, err := f.tokens.GetByID(context.Background(), it.Token.ID)
	require.NoError(t, err)
	assert.NotEqual(t, it.Secret, stored.SecretHash)
	assert.NotContains(t, stored.SecretHash, ".")
}

// ──────────────────────────────────────────────────────────────────────────────
// Notificación de inicio de sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestIssueToken_NotificaSoloSiLaPoliticaLoPide(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	f.issue(t)
	f.engine.WaitNotifications()
	assert.Zero(t, f.notifier.count())

	p := session.DefaultPolicy()
	p.NotifyNewLogin = true
	f = newFixture(t, p)
	it := f.issue(t)
	f.engine.WaitNotifications()
	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, it.Token.ID, f.notifier.events[0].TokenID)
	assert.Equal(t, "caja", f.notifier.events[0].Device)
}

func TestIssueToken_FalloDeNotificacionNoFallaElLogin(t *testing.T) {
	p := session.DefaultPolicy()
	p.NotifyNewLogin = true
	f := newFixture(t, p)
	f.notifier.err = fmt.Errorf("smtp caído")

	it := f.issue(t)
	f.engine.WaitNotifications()
	_, _, err := f.engine.ValidateToken(context.Background(), it.Secret)
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidateToken / revocación
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateToken_RevocadoFallaInmediatamente(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	it := f.issue(t)

	require.NoError(t, f.engine.RevokeToken(context.Background(), it.Token.ID))
	_, _, err := f.engine.ValidateToken(context.Background(), it.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestValidateToken_Rechazos(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	it := f.issue(t)

	_, _, err := f.engine.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, _, err = f.engine.ValidateToken(context.Background(), "token.invalido.aqui")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	other := session.NewEngine(session.DefaultPolicy(), session.SigningConfig{Secret: "otro", Issuer: "test"},
		memory.NewActorRunner(f.tokens), f.tokens, f.users, session.WithClock(f.clock.Now))
	_, _, err = other.ValidateToken(context.Background(), it.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "firma con otro secreto")

	disabled := *f.actor
	disabled.Status = entity.UserStatusDisabled
	require.NoError(t, f.users.Update(context.Background(), &disabled))
	_, _, err = f.engine.ValidateToken(context.Background(), it.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "actor deshabilitado")
}

func TestValidateToken_DevuelveActor(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	it := f.issue(t)
	user, tok, err := f.engine.ValidateToken(context.Background(), it.Secret)
	require.NoError(t, err)
	assert.Equal(t, f.actor.ID, user.ID)
	assert.Equal(t, entity.RoleCajero, user.Role)
	assert.Equal(t, it.Token.ID, tok.ID)
}

func TestRevokeToken_Idempotente(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	it := f.issue(t)

	require.NoError(t, f.engine.RevokeToken(context.Background(), it.Token.ID))
	first, _ := f.tokens.GetByID(context.Background(), it.Token.ID)
	f.clock.Advance(time.Hour)
	require.NoError(t, f.engine.RevokeToken(context.Background(), it.Token.ID), "revocar dos veces no es error")
	second, _ := f.tokens.GetByID(context.Background(), it.Token.ID)
	assert.Equal(t, first.RevokedAt, second.RevokedAt)

	assert.ErrorIs(t, f.engine.RevokeToken(context.Background(), "no-existe"), domain.ErrNotFound)
}

func TestRevokeAllForActor(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	issued := []*session.IssuedToken{f.issue(t), f.issue(t), f.issue(t)}

	n, err := f.engine.RevokeAllForActor(context.Background(), f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, f.validCount(t, issued))

	n, err = f.engine.RevokeAllForActor(context.Background(), f.actor.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "segunda llamada no revoca nada")
}

func TestOnPasswordChange(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	issued := []*session.IssuedToken{f.issue(t), f.issue(t)}
	n, err := f.engine.OnPasswordChange(context.Background(), f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, f.validCount(t, issued))

	p := session.DefaultPolicy()
	p.RevokeOnPasswordChange = false
	f = newFixture(t, p)
	issued = []*session.IssuedToken{f.issue(t)}
	n, err = f.engine.OnPasswordChange(context.Background(), f.actor.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.validCount(t, issued))
}

func TestActiveSessions_OrdenAscendente(t *testing.T) {
	f := newFixture(t, session.DefaultPolicy())
	a, b := f.issue(t), f.issue(t)
	require.NoError(t, f.engine.RevokeToken(context.Background(), a.Token.ID))
	c := f.issue(t)

	list, err := f.engine.ActiveSessions(context.Background(), f.actor.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.Token.ID, list[0].ID)
	assert.Equal(t, c.Token.ID, list[1].ID)
}
