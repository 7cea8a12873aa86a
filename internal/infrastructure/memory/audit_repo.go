package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo rastro de auditoría en memoria.
type AuditRepo struct {
	mu      sync.RWMutex
	entries []*entity.AuditEntry
}

// NewAuditRepo crea el repositorio vacío.
func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

func (r *AuditRepo) Record(ctx context.Context, e *entity.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, cloneAudit(e))
	return nil
}

func (r *AuditRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	r.mu.RLock()
	out := make([]*entity.AuditEntry, 0)
	for _, e := range r.entries {
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		if !f.Since.IsZero() && e.At.Before(f.Since) {
			continue
		}
		out = append(out, cloneAudit(e))
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
