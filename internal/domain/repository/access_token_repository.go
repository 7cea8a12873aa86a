package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// AccessTokenRepository es el almacén de credenciales emitidas.
type AccessTokenRepository interface {
	Create(ctx context.Context, token *entity.AccessToken) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.AccessToken, error)
	// ListByActor devuelve todos los tokens del actor (incluidos revocados) por CreatedAt ascendente, luego ID.
	ListByActor(ctx context.Context, actorID string) ([]*entity.AccessToken, error)
	// Revoke marca el token como revocado. Es idempotente: un token ya revocado conserva su fecha original.
	Revoke(ctx context.Context, id, reason string, at time.Time) error
	// RevokeAllByActor revoca los tokens aún no revocados del actor y devuelve cuántos cambiaron.
	RevokeAllByActor(ctx context.Context, actorID, reason string, at time.Time) (int, error)
}
