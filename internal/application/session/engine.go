// Package session aplica la política de sesiones: emisión de tokens con límite de dispositivos,
// expulsión del más antiguo, validación, revocación y cascada por cambio de contraseña.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/ports"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/jwt"
)

const defaultNotifyTimeout = 5 * time.Second

// SigningConfig firma de los secretos emitidos.
type SigningConfig struct {
	Secret string
	Issuer string
}

// IssuedToken resultado de IssueToken. Secret solo existe en esta respuesta; no se persiste.
type IssuedToken struct {
	Token   *entity.AccessToken
	Secret  string
	Evicted []string // ids revocados para hacer sitio
}

// Engine es el motor de política de sesiones.
type Engine struct {
	policy   Policy
	signing  SigningConfig
	runner   ActorTxRunner
	tokens   repository.AccessTokenRepository
	users    repository.UserRepository
	notifier ports.LoginNotifier
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

// Option configura el Engine.
type Option func(*Engine)

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithNotifier define el destino de los eventos de nuevo inicio de sesión.
func WithNotifier(n ports.LoginNotifier) Option { return func(e *Engine) { e.notifier = n } }

// WithLogger inyecta el logger del componente.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithIDGenerator reemplaza uuid.NewString (tests).
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

// NewEngine construye el motor. tokens es el acceso de solo lectura fuera de transacción.
// Un MaxDevices menor que 1 se toma como 1.
func NewEngine(policy Policy, signing SigningConfig, runner ActorTxRunner, tokens repository.AccessTokenRepository, users repository.UserRepository, opts ...Option) *Engine {
	e := &Engine{
		policy:        policy.normalized(),
		signing:       signing,
		runner:        runner,
		tokens:        tokens,
		users:         users,
		log:           zerolog.Nop(),
		now:           time.Now,
		newID:         uuid.NewString,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Policy devuelve la política vigente.
func (e *Engine) Policy() Policy { return e.policy }

// IssueToken emite un token para actor aplicando sesión única, límite de dispositivos y expiración.
// Con límite alcanzado y RevokeOldestOnLimit=false devuelve domain.ErrSessionLimitExceeded sin tocar
// los tokens existentes.
func (e *Engine) IssueToken(ctx context.Context, actor *entity.User, device entity.DeviceMeta) (*IssuedToken, error) {
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("session: actor requerido: %w", domain.ErrInvalidInput)
	}
	var out *IssuedToken
	err := e.runner.RunForActor(ctx, actor.ID, func(tokens repository.AccessTokenRepository) error {
		now := e.now()
		var evicted []string

		if !e.policy.AllowMultipleSessions {
			active, err := e.activeTokens(ctx, tokens, actor.ID, now)
			if err != nil {
				return err
			}
			for _, t := range active {
				if err := tokens.Revoke(ctx, t.ID, entity.RevokeReasonSingleSession, now); err != nil {
					return infraErr("revocar sesión previa", err)
				}
				evicted = append(evicted, t.ID)
			}
		}

		if limit := e.policy.MaxDevices; limit != nil {
			active, err := e.activeTokens(ctx, tokens, actor.ID, now)
			if err != nil {
				return err
			}
			if excess := len(active) + 1 - *limit; excess > 0 {
				if !e.policy.RevokeOldestOnLimit {
					return fmt.Errorf("session: %d de %d dispositivos activos: %w", len(active), *limit, domain.ErrSessionLimitExceeded)
				}
				for _, t := range active[:excess] {
					if err := tokens.Revoke(ctx, t.ID, entity.RevokeReasonDeviceLimit, now); err != nil {
						return infraErr("revocar sesión más antigua", err)
					}
					evicted = append(evicted, t.ID)
				}
			}
		}

		tok := &entity.AccessToken{
			ID:        e.newID(),
			ActorID:   actor.ID,
			Device:    device,
			CreatedAt: now,
			ExpiresAt: e.policy.expiresAt(now),
		}
		secret, err := jwt.Generate(jwt.Params{
			Secret:    e.signing.Secret,
			Issuer:    e.signing.Issuer,
			TokenID:   tok.ID,
			UserID:    actor.ID,
			IssuedAt:  now,
			ExpiresAt: tok.ExpiresAt,
		})
		if err != nil {
			return fmt.Errorf("session: firmar token: %w", err)
		}
		tok.SecretHash = jwt.Fingerprint(secret)
		if err := tokens.Create(ctx, tok); err != nil {
			return infraErr("guardar token", err)
		}
		out = &IssuedToken{Token: tok, Secret: secret, Evicted: evicted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("actor_id", actor.ID).
		Str("token_id", out.Token.ID).
		Int("evicted", len(out.Evicted)).
		Msg("sesión emitida")

	if e.policy.NotifyNewLogin && e.notifier != nil {
		e.dispatchLogin(actor, out.Token)
	}
	return out, nil
}

// ValidateToken resuelve el actor dueño del secreto. Devuelve domain.ErrUnauthenticated si el
// secreto es inválido, desconocido, revocado o vencido, o si el actor ya no está activo.
func (e *Engine) ValidateToken(ctx context.Context, secret string) (*entity.User, *entity.AccessToken, error) {
	if secret == "" {
		return nil, nil, fmt.Errorf("token vacío: %w", domain.ErrUnauthenticated)
	}
	now := e.now()
	claims, err := jwt.Parse(e.signing.Secret, e.signing.Issuer, secret, now)
	if err != nil {
		return nil, nil, fmt.Errorf("token inválido: %w", domain.ErrUnauthenticated)
	}
	tok, err := e.tokens.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, nil, infraErr("leer token", err)
	}
	if tok == nil {
		return nil, nil, fmt.Errorf("token desconocido: %w", domain.ErrUnauthenticated)
	}
	if subtle.ConstantTimeCompare([]byte(tok.SecretHash), []byte(jwt.Fingerprint(secret))) != 1 || tok.ActorID != claims.UserID {
		return nil, nil, fmt.Errorf("token no coincide: %w", domain.ErrUnauthenticated)
	}
	if tok.Revoked() {
		return nil, nil, fmt.Errorf("token revocado: %w", domain.ErrUnauthenticated)
	}
	if tok.Expired(now) {
		return nil, nil, fmt.Errorf("token vencido: %w", domain.ErrUnauthenticated)
	}
	user, err := e.users.GetByID(ctx, tok.ActorID)
	if err != nil {
		return nil, nil, infraErr("leer actor", err)
	}
	if !user.IsActive() {
		return nil, nil, fmt.Errorf("actor inexistente o inactivo: %w", domain.ErrUnauthenticated)
	}
	return user, tok, nil
}

// RevokeToken revoca un token. Revocar uno ya revocado es éxito sin cambios.
func (e *Engine) RevokeToken(ctx context.Context, tokenID string) error {
	tok, err := e.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return infraErr("leer token", err)
	}
	if tok == nil {
		return fmt.Errorf("token %s: %w", tokenID, domain.ErrNotFound)
	}
	if tok.Revoked() {
		return nil
	}
	err = e.runner.RunForActor(ctx, tok.ActorID, func(tokens repository.AccessTokenRepository) error {
		if err := tokens.Revoke(ctx, tokenID, entity.RevokeReasonLogout, e.now()); err != nil {
			return infraErr("revocar token", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("actor_id", tok.ActorID).Str("token_id", tokenID).Msg("sesión revocada")
	return nil
}

// RevokeAllForActor revoca todas las sesiones vigentes del actor. Idempotente.
func (e *Engine) RevokeAllForActor(ctx context.Context, actorID string) (int, error) {
	return e.revokeAll(ctx, actorID, entity.RevokeReasonLogoutAll)
}

// OnPasswordChange revoca todas las sesiones del actor si la política lo indica.
func (e *Engine) OnPasswordChange(ctx context.Context, actorID string) (int, error) {
	if !e.policy.RevokeOnPasswordChange {
		return 0, nil
	}
	return e.revokeAll(ctx, actorID, entity.RevokeReasonPasswordChange)
}

// ActiveSessions lista los tokens vigentes del actor, del más antiguo al más reciente.
func (e *Engine) ActiveSessions(ctx context.Context, actorID string) ([]*entity.AccessToken, error) {
	return e.activeTokens(ctx, e.tokens, actorID, e.now())
}

// WaitNotifications espera a que terminen los envíos de notificación en curso (apagado ordenado).
func (e *Engine) WaitNotifications() {
	e.pending.Wait()
}

func (e *Engine) revokeAll(ctx context.Context, actorID, reason string) (int, error) {
	if actorID == "" {
		return 0, fmt.Errorf("session: actor requerido: %w", domain.ErrInvalidInput)
	}
	var n int
	err := e.runner.RunForActor(ctx, actorID, func(tokens repository.AccessTokenRepository) error {
		var err error
		n, err = tokens.RevokeAllByActor(ctx, actorID, reason, e.now())
		if err != nil {
			return infraErr("revocar sesiones", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Info().Str("actor_id", actorID).Str("reason", reason).Int("revoked", n).Msg("sesiones revocadas")
	}
	return n, nil
}

func (e *Engine) activeTokens(ctx context.Context, tokens repository.AccessTokenRepository, actorID string, now time.Time) ([]*entity.AccessToken, error) {
	all, err := tokens.ListByActor(ctx, actorID)
	if err != nil {
		return nil, infraErr("listar tokens", err)
	}
	active := make([]*entity.AccessToken, 0, len(all))
	for _, t := range all {
		if t.Active(now) {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].OlderThan(active[j]) })
	return active, nil
}

func (e *Engine) dispatchLogin(actor *entity.User, tok *entity.AccessToken) {
	ev := ports.LoginEvent{
		ActorID:   actor.ID,
		Username:  actor.Username,
		Email:     actor.Email,
		TokenID:   tok.ID,
		Device:    tok.Device.Name,
		UserAgent: tok.Device.UserAgent,
		IPAddress: tok.Device.IPAddress,
		At:        tok.CreatedAt,
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error().Interface("panic", r).Str("actor_id", ev.ActorID).Msg("notificador de inicio de sesión")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
		defer cancel()
		if err := e.notifier.NotifyNewLogin(ctx, ev); err != nil {
			e.log.Warn().Err(err).Str("actor_id", ev.ActorID).Msg("no se pudo notificar el inicio de sesión")
		}
	}()
}

// infraErr marca un fallo del almacén como error de infraestructura, salvo que ya sea de dominio.
func infraErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnavailable) {
		return fmt.Errorf("session: %s: %w", op, err)
	}
	return fmt.Errorf("session: %s: %w: %w", op, domain.ErrUnavailable, err)
}
