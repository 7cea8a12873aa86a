package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// SubscriptionRepository persiste suscripciones. No hay Delete: se pasa a un estado terminal.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Subscription, error)
	GetByEmisorAndPlan(ctx context.Context, emisorID, planID string) (*entity.Subscription, error)
	ListByEmisor(ctx context.Context, emisorID string) ([]*entity.Subscription, error)
	// ListByStates devuelve las suscripciones cuyo estado está en states, ordenadas por ID.
	ListByStates(ctx context.Context, states []entity.SubscriptionState) ([]*entity.Subscription, error)
	Update(ctx context.Context, sub *entity.Subscription) error
}

// TransitionRepository es el historial append-only de cambios de estado.
type TransitionRepository interface {
	Append(ctx context.Context, rec *entity.TransitionRecord) error
	// ListBySubscription devuelve el historial por At ascendente, luego Seq.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*entity.TransitionRecord, error)
	// Last devuelve el registro más reciente o (nil, nil) si no hay historial.
	Last(ctx context.Context, subscriptionID string) (*entity.TransitionRecord, error)
}
