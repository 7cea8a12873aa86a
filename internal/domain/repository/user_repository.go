package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los Get* devuelven (nil, nil) cuando no existe el registro.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByIdentification(ctx context.Context, identification string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	ListByEmisor(ctx context.Context, emisorID string, limit, offset int) ([]*entity.User, error)
}
