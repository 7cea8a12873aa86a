package ports

import (
	"context"
	"time"
)

// LoginEvent se publica cuando un actor inicia una nueva sesión y la política lo pide.
type LoginEvent struct {
	ActorID   string    `json:"actor_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	TokenID   string    `json:"token_id"`
	Device    string    `json:"device,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	At        time.Time `json:"at"`
}

// LoginNotifier entrega eventos de nuevo inicio de sesión (correo, pub/sub…).
// Un error aquí nunca debe hacer fallar la autenticación.
type LoginNotifier interface {
	NotifyNewLogin(ctx context.Context, ev LoginEvent) error
}
