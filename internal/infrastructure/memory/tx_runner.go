package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Facturacion-api/internal/application/session"
	appsub "github.com/jhoicas/Facturacion-api/internal/application/subscription"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/keylock"
)

var (
	_ session.ActorTxRunner       = (*ActorRunner)(nil)
	_ appsub.SubscriptionTxRunner = (*SubscriptionRunner)(nil)
)

// ActorRunner serializa por actor con un candado por clave sobre el TokenRepo compartido.
type ActorRunner struct {
	locks  *keylock.Locker
	tokens *TokenRepo
}

// NewActorRunner construye el runner.
func NewActorRunner(tokens *TokenRepo) *ActorRunner {
	return &ActorRunner{locks: keylock.New(), tokens: tokens}
}

// RunForActor ejecuta fn con el candado del actor tomado. Si ctx vence esperando el candado
// devuelve domain.ErrUnavailable, igual que el runner de Postgres.
func (r *ActorRunner) RunForActor(ctx context.Context, actorID string, fn func(tokens repository.AccessTokenRepository) error) error {
	unlock, err := r.locks.Lock(ctx, "session:"+actorID)
	if err != nil {
		return fmt.Errorf("lock actor %s: %w: %w", actorID, domain.ErrUnavailable, err)
	}
	defer unlock()
	return fn(r.tokens)
}

// SubscriptionRunner serializa por suscripción.
type SubscriptionRunner struct {
	locks   *keylock.Locker
	subs    *SubscriptionRepo
	history *TransitionRepo
}

// NewSubscriptionRunner construye el runner.
func NewSubscriptionRunner(subs *SubscriptionRepo, history *TransitionRepo) *SubscriptionRunner {
	return &SubscriptionRunner{locks: keylock.New(), subs: subs, history: history}
}

// RunForSubscription ejecuta fn con el candado de la suscripción tomado.
func (r *SubscriptionRunner) RunForSubscription(ctx context.Context, subscriptionID string, fn func(
	subs repository.SubscriptionRepository,
	history repository.TransitionRepository,
) error) error {
	unlock, err := r.locks.Lock(ctx, "subscription:"+subscriptionID)
	if err != nil {
		return fmt.Errorf("lock subscription %s: %w: %w", subscriptionID, domain.ErrUnavailable, err)
	}
	defer unlock()
	return fn(r.subs, r.history)
}
