package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.AccessTokenRepository = (*TokenRepo)(nil)

// TokenRepo almacén de credenciales en memoria.
type TokenRepo struct {
	mu      sync.RWMutex
	byID    map[string]*entity.AccessToken
	byActor map[string][]string
}

// NewTokenRepo crea el repositorio vacío.
func NewTokenRepo() *TokenRepo {
	return &TokenRepo{
		byID:    make(map[string]*entity.AccessToken),
		byActor: make(map[string][]string),
	}
}

func (r *TokenRepo) Create(ctx context.Context, t *entity.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" || t.ActorID == "" {
		return fmt.Errorf("token id y actor requeridos: %w", domain.ErrInvalidInput)
	}
	if _, ok := r.byID[t.ID]; ok {
		return domain.ErrDuplicate
	}
	r.byID[t.ID] = cloneToken(t)
	r.byActor[t.ActorID] = append(r.byActor[t.ActorID], t.ID)
	return nil
}

func (r *TokenRepo) GetByID(ctx context.Context, id string) (*entity.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneToken(t), nil
}

func (r *TokenRepo) ListByActor(ctx context.Context, actorID string) ([]*entity.AccessToken, error) {
	r.mu.RLock()
	out := make([]*entity.AccessToken, 0, len(r.byActor[actorID]))
	for _, id := range r.byActor[actorID] {
		out = append(out, cloneToken(r.byID[id]))
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].OlderThan(out[j]) })
	return out, nil
}

func (r *TokenRepo) Revoke(ctx context.Context, id, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.RevokedAt == nil {
		t.RevokedAt = cloneTime(&at)
		t.RevokeReason = reason
	}
	return nil
}

func (r *TokenRepo) RevokeAllByActor(ctx context.Context, actorID, reason string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range r.byActor[actorID] {
		t := r.byID[id]
		if t.RevokedAt == nil {
			t.RevokedAt = cloneTime(&at)
			t.RevokeReason = reason
			n++
		}
	}
	return n, nil
}
