package session

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// ActorTxRunner ejecuta fn serializado por actor y de forma atómica: dos llamadas con el mismo
// actorID nunca se solapan; actores distintos no se bloquean entre sí.
type ActorTxRunner interface {
	RunForActor(ctx context.Context, actorID string, fn func(tokens repository.AccessTokenRepository) error) error
}
