package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// AuditFilter filtra la consulta del rastro de auditoría. Campos vacíos no filtran.
type AuditFilter struct {
	Kind    string
	ActorID string
	Since   time.Time
	Limit   int
}

// AuditRepository persiste denegaciones y transiciones rechazadas.
type AuditRepository interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
	// List devuelve las entradas por At descendente.
	List(ctx context.Context, f AuditFilter) ([]*entity.AuditEntry, error)
}
