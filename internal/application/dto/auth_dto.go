package dto

import "time"

// LoginRequest entrada para login. Login acepta username o email.
type LoginRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

// LoginResponse token emitido, expulsiones y usuario.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenID   string       `json:"token_id"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Evicted   []string     `json:"evicted,omitempty"`
	User      UserResponse `json:"user"`
}

// ChangePasswordRequest cambio de contraseña del usuario autenticado.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePasswordResponse resultado con el número de sesiones revocadas.
type ChangePasswordResponse struct {
	RevokedSessions int `json:"revoked_sessions"`
}

// LogoutAllResponse resultado de cerrar todas las sesiones.
type LogoutAllResponse struct {
	RevokedSessions int `json:"revoked_sessions"`
}

// SessionResponse token activo (el secreto nunca se devuelve).
type SessionResponse struct {
	ID         string     `json:"id"`
	DeviceName string     `json:"device_name,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Current    bool       `json:"current"`
}
