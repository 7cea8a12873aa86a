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

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria con unicidad de username, email e identificación.
type UserRepo struct {
	mu   sync.RWMutex
	byID map[string]*entity.User
}

// NewUserRepo crea el repositorio vacío.
func NewUserRepo() *UserRepo {
	return &UserRepo{byID: make(map[string]*entity.User)}
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		return fmt.Errorf("user id requerido: %w", domain.ErrInvalidInput)
	}
	if _, ok := r.byID[u.ID]; ok {
		return domain.ErrDuplicate
	}
	if r.conflictLocked(u) {
		return domain.ErrDuplicate
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) conflictLocked(u *entity.User) bool {
	for id, o := range r.byID {
		if id == u.ID {
			continue
		}
		if o.Username == u.Username || o.Email == u.Email ||
			(u.Identification != "" && o.Identification == u.Identification) {
			return true
		}
	}
	return false
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r *UserRepo) GetByIdentification(ctx context.Context, identification string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Identification == identification }), nil
}

func (r *UserRepo) find(match func(*entity.User) bool) *entity.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.conflictLocked(u) {
		return domain.ErrDuplicate
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) ListByEmisor(ctx context.Context, emisorID string, limit, offset int) ([]*entity.User, error) {
	r.mu.RLock()
	var list []*entity.User
	for _, u := range r.byID {
		if u.EmisorID == emisorID {
			list = append(list, cloneUser(u))
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return []*entity.User{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
