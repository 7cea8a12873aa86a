package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var (
	_ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)
	_ repository.TransitionRepository   = (*TransitionRepo)(nil)
)

// SubscriptionRepo suscripciones en memoria.
type SubscriptionRepo struct {
	mu   sync.RWMutex
	byID map[string]*entity.Subscription
}

// NewSubscriptionRepo crea el repositorio vacío.
func NewSubscriptionRepo() *SubscriptionRepo {
	return &SubscriptionRepo{byID: make(map[string]*entity.Subscription)}
}

func (r *SubscriptionRepo) Create(ctx context.Context, s *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		return fmt.Errorf("subscription id requerido: %w", domain.ErrInvalidInput)
	}
	if _, ok := r.byID[s.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, o := range r.byID {
		if o.EmisorID == s.EmisorID && o.PlanID == s.PlanID {
			return domain.ErrDuplicate
		}
	}
	r.byID[s.ID] = cloneSubscription(s)
	return nil
}

func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneSubscription(s), nil
}

func (r *SubscriptionRepo) GetByEmisorAndPlan(ctx context.Context, emisorID, planID string) (*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.EmisorID == emisorID && s.PlanID == planID {
			return cloneSubscription(s), nil
		}
	}
	return nil, nil
}

func (r *SubscriptionRepo) ListByEmisor(ctx context.Context, emisorID string) ([]*entity.Subscription, error) {
	return r.list(func(s *entity.Subscription) bool { return s.EmisorID == emisorID }), nil
}

func (r *SubscriptionRepo) ListByStates(ctx context.Context, states []entity.SubscriptionState) ([]*entity.Subscription, error) {
	want := make(map[entity.SubscriptionState]bool, len(states))
	for _, s := range states {
		want[s] = true
	}
	return r.list(func(s *entity.Subscription) bool { return want[s.State] }), nil
}

func (r *SubscriptionRepo) list(match func(*entity.Subscription) bool) []*entity.Subscription {
	r.mu.RLock()
	out := make([]*entity.Subscription, 0)
	for _, s := range r.byID {
		if match(s) {
			out = append(out, cloneSubscription(s))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *SubscriptionRepo) Update(ctx context.Context, s *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[s.ID] = cloneSubscription(s)
	return nil
}

// TransitionRepo historial append-only en memoria.
type TransitionRepo struct {
	mu    sync.RWMutex
	bySub map[string][]*entity.TransitionRecord
}

// NewTransitionRepo crea el repositorio vacío.
func NewTransitionRepo() *TransitionRepo {
	return &TransitionRepo{bySub: make(map[string][]*entity.TransitionRecord)}
}

func (r *TransitionRepo) Append(ctx context.Context, rec *entity.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" || rec.SubscriptionID == "" {
		return fmt.Errorf("registro incompleto: %w", domain.ErrInvalidInput)
	}
	r.bySub[rec.SubscriptionID] = append(r.bySub[rec.SubscriptionID], cloneTransition(rec))
	return nil
}

func (r *TransitionRepo) ListBySubscription(ctx context.Context, subscriptionID string) ([]*entity.TransitionRecord, error) {
	r.mu.RLock()
	src := r.bySub[subscriptionID]
	out := make([]*entity.TransitionRecord, 0, len(src))
	for _, rec := range src {
		out = append(out, cloneTransition(rec))
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

func (r *TransitionRepo) Last(ctx context.Context, subscriptionID string) (*entity.TransitionRecord, error) {
	list, _ := r.ListBySubscription(ctx, subscriptionID)
	if len(list) == 0 {
		return nil, nil
	}
	return list[len(list)-1], nil
}
