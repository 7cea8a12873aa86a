package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// PlanRepository lectura del catálogo de planes.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Plan, error)
	List(ctx context.Context, onlyActive bool) ([]*entity.Plan, error)
}

// EmisorRepository lectura de emisores (el CRUD vive fuera de este núcleo).
type EmisorRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Emisor, error)
}
