package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/ports"
)

var _ ports.LoginNotifier = (*LogNotifier)(nil)

// LogNotifier registra el evento en el log. Se usa cuando no hay REDIS_ADDR.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// NotifyNewLogin nunca falla.
func (n *LogNotifier) NotifyNewLogin(_ context.Context, ev ports.LoginEvent) error {
	n.log.Info().
		Str("actor_id", ev.ActorID).
		Str("username", ev.Username).
		Str("token_id", ev.TokenID).
		Str("device", ev.Device).
		Str("ip", ev.IPAddress).
		Time("at", ev.At).
		Msg("nuevo inicio de sesión")
	return nil
}
