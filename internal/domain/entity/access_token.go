package entity

import "time"

// Motivos de revocación de un AccessToken.
const (
	RevokeReasonLogout         = "logout"
	RevokeReasonLogoutAll      = "logout_all"
	RevokeReasonSingleSession  = "single_session"
	RevokeReasonDeviceLimit    = "device_limit"
	RevokeReasonPasswordChange = "password_change"
)

// DeviceMeta describe el cliente que inició la sesión. Informativo, no se usa para seguridad.
type DeviceMeta struct {
	Name      string
	UserAgent string
	IPAddress string
}

// AccessToken es una sesión autenticada. Solo se persiste el hash del secreto emitido.
type AccessToken struct {
	ID           string
	ActorID      string
	SecretHash   string
	Device       DeviceMeta
	CreatedAt    time.Time
	ExpiresAt    *time.Time // nil = no expira
	RevokedAt    *time.Time // nil = vigente
	RevokeReason string
}

// Revoked informa si el token fue revocado.
func (t *AccessToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired informa si el token venció en el instante now. Sin ExpiresAt nunca vence.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Active informa si el token puede autorizar una petición en el instante now.
func (t *AccessToken) Active(now time.Time) bool {
	return !t.Revoked() && !t.Expired(now)
}

// OlderThan ordena por CreatedAt ascendente y desempata por ID.
func (t *AccessToken) OlderThan(o *AccessToken) bool {
	if t.CreatedAt.Equal(o.CreatedAt) {
		return t.ID < o.ID
	}
	return t.CreatedAt.Before(o.CreatedAt)
}
