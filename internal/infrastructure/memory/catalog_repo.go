package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var (
	_ repository.PlanRepository   = (*PlanRepo)(nil)
	_ repository.EmisorRepository = (*EmisorRepo)(nil)
)

// PlanRepo catálogo de planes en memoria. Put reemplaza o agrega.
type PlanRepo struct {
	mu   sync.RWMutex
	byID map[string]entity.Plan
}

// NewPlanRepo crea el catálogo con los planes dados.
func NewPlanRepo(plans ...entity.Plan) *PlanRepo {
	r := &PlanRepo{byID: make(map[string]entity.Plan)}
	for _, p := range plans {
		r.Put(p)
	}
	return r
}

// Put agrega o reemplaza un plan.
func (r *PlanRepo) Put(p entity.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
}

func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PlanRepo) List(ctx context.Context, onlyActive bool) ([]*entity.Plan, error) {
	r.mu.RLock()
	out := make([]*entity.Plan, 0, len(r.byID))
	for _, p := range r.byID {
		if onlyActive && !p.Active {
			continue
		}
		p := p
		out = append(out, &p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// EmisorRepo emisores en memoria.
type EmisorRepo struct {
	mu   sync.RWMutex
	byID map[string]entity.Emisor
}

// NewEmisorRepo crea el repositorio con los emisores dados.
func NewEmisorRepo(emisores ...entity.Emisor) *EmisorRepo {
	r := &EmisorRepo{byID: make(map[string]entity.Emisor)}
	for _, e := range emisores {
		r.Put(e)
	}
	return r
}

// Put agrega o reemplaza un emisor.
func (r *EmisorRepo) Put(e entity.Emisor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[e.ID] = e
}

func (r *EmisorRepo) GetByID(ctx context.Context, id string) (*entity.Emisor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}
