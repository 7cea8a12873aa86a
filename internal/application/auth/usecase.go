// Package auth contiene los casos de uso de cuentas: creación de usuarios según la jerarquía de
// roles, login, cierre de sesión, cambio de contraseña y listado de sesiones activas.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/session"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/textnorm"
)

const minPasswordLen = 8

// AuthUseCase casos de uso de autenticación y administración de usuarios.
type AuthUseCase struct {
	users    repository.UserRepository
	emisores repository.EmisorRepository
	audit    repository.AuditRepository
	sessions *session.Engine
	log      zerolog.Logger
	now      func() time.Time
	cost     int
}

// Option configura AuthUseCase.
type Option func(*AuthUseCase)

// WithBcryptCost cambia el costo de bcrypt (tests usan bcrypt.MinCost).
func WithBcryptCost(cost int) Option { return func(uc *AuthUseCase) { uc.cost = cost } }

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) Option { return func(uc *AuthUseCase) { uc.now = now } }

// NewAuthUseCase construye el caso de uso de auth. Cada ErrForbidden queda registrado en audit.
func NewAuthUseCase(users repository.UserRepository, emisores repository.EmisorRepository, audit repository.AuditRepository, sessions *session.Engine, log zerolog.Logger, opts ...Option) *AuthUseCase {
	uc := &AuthUseCase{
		users:    users,
		emisores: emisores,
		audit:    audit,
		sessions: sessions,
		log:      log,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// CreateUser crea un usuario en nombre de creator. El rol destino debe estar en creator.MayCreate();
// un creador no administrativo solo crea usuarios de su propio emisor.
func (uc *AuthUseCase) CreateUser(ctx context.Context, creator *entity.User, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if creator == nil {
		return nil, domain.ErrUnauthenticated
	}
	role, ok := entity.ParseRole(in.Role)
	if !ok {
		return nil, fmt.Errorf("rol %q: %w", in.Role, domain.ErrInvalidInput)
	}
	if !creator.Role.CanCreate(role) {
		return nil, uc.deny(ctx, creator, "create_user", string(role), fmt.Sprintf("%s no puede crear %s", creator.Role, role))
	}
	emisorID, err := uc.resolveEmisor(ctx, creator, role, strings.TrimSpace(in.EmisorID))
	if err != nil {
		return nil, err
	}

	username := textnorm.Identifier(in.Username)
	email := textnorm.Identifier(in.Email)
	identification := strings.TrimSpace(in.Identification)
	switch {
	case username == "":
		return nil, fmt.Errorf("username obligatorio: %w", domain.ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("email inválido: %w", domain.ErrInvalidInput)
	case len(in.Password) < minPasswordLen:
		return nil, fmt.Errorf("la contraseña debe tener al menos %d caracteres: %w", minPasswordLen, domain.ErrInvalidInput)
	}
	if err := uc.ensureUnique(ctx, username, email, identification); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := uc.now()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}
	user := &entity.User{
		ID:             uuid.New().String(),
		EmisorID:       emisorID,
		Username:       username,
		Email:          email,
		Identification: identification,
		Name:           name,
		Role:           role,
		Status:         entity.UserStatusActive,
		PasswordHash:   string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("usuario duplicado: %w", err)
		}
		return nil, fmt.Errorf("crear usuario: %w: %w", domain.ErrUnavailable, err)
	}
	uc.log.Info().
		Str("user_id", user.ID).
		Str("role", string(role)).
		Str("emisor_id", emisorID).
		Str("created_by", creator.ID).
		Msg("usuario creado")
	return ToUserResponse(user), nil
}

func (uc *AuthUseCase) resolveEmisor(ctx context.Context, creator *entity.User, role entity.Role, requested string) (string, error) {
	if role.IsAdministrative() {
		return "", nil
	}
	emisorID := requested
	if !creator.Role.IsAdministrative() {
		if requested != "" && requested != creator.EmisorID {
			return "", uc.deny(ctx, creator, "create_user", "emisor:"+requested, "solo puede crear usuarios de su emisor")
		}
		emisorID = creator.EmisorID
	}
	if emisorID == "" {
		return "", fmt.Errorf("emisor_id obligatorio para rol %s: %w", role, domain.ErrInvalidInput)
	}
	emisor, err := uc.emisores.GetByID(ctx, emisorID)
	if err != nil {
		return "", fmt.Errorf("leer emisor: %w: %w", domain.ErrUnavailable, err)
	}
	if emisor == nil {
		return "", fmt.Errorf("emisor %s: %w", emisorID, domain.ErrNotFound)
	}
	return emisorID, nil
}

func (uc *AuthUseCase) ensureUnique(ctx context.Context, username, email, identification string) error {
	type lookup struct {
		field string
		value string
		get   func(context.Context, string) (*entity.User, error)
	}
	checks := []lookup{
		{"username", username, uc.users.GetByUsername},
		{"email", email, uc.users.GetByEmail},
	}
	if identification != "" {
		checks = append(checks, lookup{"identification", identification, uc.users.GetByIdentification})
	}
	for _, c := range checks {
		existing, err := c.get(ctx, c.value)
		if err != nil {
			return fmt.Errorf("buscar %s: %w: %w", c.field, domain.ErrUnavailable, err)
		}
		if existing != nil {
			return fmt.Errorf("%s ya registrado: %w", c.field, domain.ErrDuplicate)
		}
	}
	return nil
}

// Login verifica usuario o email y password, exige estado activo y emite un token de sesión.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, device entity.DeviceMeta) (*dto.LoginResponse, error) {
	key := textnorm.Identifier(in.Login)
	if key == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := uc.findByLogin(ctx, key)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, uc.deny(ctx, user, "login", "user:"+user.ID, "usuario "+string(user.Status))
	}
	if device.Name == "" {
		device.Name = in.DeviceName
	}
	issued, err := uc.sessions.IssueToken(ctx, user, device)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     issued.Secret,
		TokenID:   issued.Token.ID,
		ExpiresAt: issued.Token.ExpiresAt,
		Evicted:   issued.Evicted,
		User:      *ToUserResponse(user),
	}, nil
}

func (uc *AuthUseCase) findByLogin(ctx context.Context, key string) (*entity.User, error) {
	lookups := []func(context.Context, string) (*entity.User, error){uc.users.GetByUsername, uc.users.GetByEmail}
	if strings.Contains(key, "@") {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}
	for _, get := range lookups {
		u, err := get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("buscar usuario: %w: %w", domain.ErrUnavailable, err)
		}
		if u != nil {
			return u, nil
		}
	}
	return nil, nil
}

// Logout revoca el token de la sesión actual.
func (uc *AuthUseCase) Logout(ctx context.Context, tokenID string) error {
	return uc.sessions.RevokeToken(ctx, tokenID)
}

// LogoutAll revoca todas las sesiones del actor.
func (uc *AuthUseCase) LogoutAll(ctx context.Context, actorID string) (*dto.LogoutAllResponse, error) {
	n, err := uc.sessions.RevokeAllForActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &dto.LogoutAllResponse{RevokedSessions: n}, nil
}

// ChangePassword verifica la contraseña actual, guarda la nueva y aplica la política de revocación.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, actorID string, in dto.ChangePasswordRequest) (*dto.ChangePasswordResponse, error) {
	if len(in.NewPassword) < minPasswordLen {
		return nil, fmt.Errorf("la contraseña debe tener al menos %d caracteres: %w", minPasswordLen, domain.ErrInvalidInput)
	}
	user, err := uc.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("leer usuario: %w: %w", domain.ErrUnavailable, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = uc.now()
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("actualizar usuario: %w: %w", domain.ErrUnavailable, err)
	}
	revoked, err := uc.sessions.OnPasswordChange(ctx, actorID)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", actorID).Int("revoked", revoked).Msg("contraseña actualizada")
	return &dto.ChangePasswordResponse{RevokedSessions: revoked}, nil
}

// Sessions lista las sesiones activas del actor marcando la actual.
func (uc *AuthUseCase) Sessions(ctx context.Context, actorID, currentTokenID string) ([]dto.SessionResponse, error) {
	tokens, err := uc.sessions.ActiveSessions(ctx, actorID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, dto.SessionResponse{
			ID:         t.ID,
			DeviceName: t.Device.Name,
			UserAgent:  t.Device.UserAgent,
			IPAddress:  t.Device.IPAddress,
			CreatedAt:  t.CreatedAt,
			ExpiresAt:  t.ExpiresAt,
			Current:    t.ID == currentTokenID,
		})
	}
	return out, nil
}

// RevokeSession revoca una sesión propia del actor. Un token de otro actor responde como inexistente.
func (uc *AuthUseCase) RevokeSession(ctx context.Context, actorID, tokenID string) error {
	tokens, err := uc.sessions.ActiveSessions(ctx, actorID)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if t.ID == tokenID {
			return uc.sessions.RevokeToken(ctx, tokenID)
		}
	}
	return fmt.Errorf("sesión %s: %w", tokenID, domain.ErrNotFound)
}

// Me devuelve el perfil del actor.
func (uc *AuthUseCase) Me(ctx context.Context, actorID string) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("leer usuario: %w: %w", domain.ErrUnavailable, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return ToUserResponse(user), nil
}

// ListUsers lista usuarios de un emisor. Un actor no administrativo solo ve su propio emisor.
func (uc *AuthUseCase) ListUsers(ctx context.Context, actor *entity.User, emisorID string, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	if !actor.Role.IsAdministrative() {
		if emisorID != "" && emisorID != actor.EmisorID {
			return nil, uc.deny(ctx, actor, "list_users", "emisor:"+emisorID, "emisor ajeno")
		}
		emisorID = actor.EmisorID
	}
	if emisorID == "" {
		return nil, fmt.Errorf("emisor_id obligatorio: %w", domain.ErrInvalidInput)
	}
	list, err := uc.users.ListByEmisor(ctx, emisorID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w: %w", domain.ErrUnavailable, err)
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *ToUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// deny registra la denegación en la auditoría y devuelve detail envuelto en domain.ErrForbidden.
// Un fallo al auditar se registra en el log; la respuesta sigue siendo Forbidden.
func (uc *AuthUseCase) deny(ctx context.Context, actor *entity.User, op, resource, detail string) error {
	uc.log.Warn().
		Str("actor_id", actor.ID).
		Str("role", string(actor.Role)).
		Str("op", op).
		Str("resource", resource).
		Msg(detail)
	entry := &entity.AuditEntry{
		ID:       uuid.NewString(),
		Kind:     entity.AuditUserDenied,
		ActorID:  actor.ID,
		HeldRole: actor.Role,
		Method:   op,
		Resource: resource,
		Detail:   detail,
		At:       uc.now(),
	}
	if err := uc.audit.Record(ctx, entry); err != nil {
		uc.log.Error().Err(err).Str("actor_id", actor.ID).Msg("registrar denegación")
	}
	return fmt.Errorf("%s: %w", detail, domain.ErrForbidden)
}

// Roles devuelve la jerarquía completa.
func Roles() []dto.RoleResponse {
	out := make([]dto.RoleResponse, 0, len(entity.AllRoles()))
	for _, r := range entity.AllRoles() {
		may := make([]string, 0)
		for _, m := range r.MayCreate() {
			may = append(may, string(m))
		}
		out = append(out, dto.RoleResponse{
			Role:           string(r),
			Label:          r.Label(),
			Rank:           r.Rank(),
			MayCreate:      may,
			Administrative: r.IsAdministrative(),
			TenantPanel:    r.IsTenantPanel(),
		})
	}
	return out
}

// ToUserResponse convierte la entidad a DTO sin el hash.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:             u.ID,
		EmisorID:       u.EmisorID,
		Username:       u.Username,
		Email:          u.Email,
		Identification: u.Identification,
		Name:           u.Name,
		Role:           string(u.Role),
		RoleLabel:      u.Role.Label(),
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
