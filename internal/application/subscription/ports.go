package subscription

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// SubscriptionTxRunner ejecuta fn como unidad atómica y serializada por suscripción: leer estado,
// validar, escribir estado y agregar historial. El barrido y los cambios manuales compiten aquí.
type SubscriptionTxRunner interface {
	RunForSubscription(ctx context.Context, subscriptionID string, fn func(
		subs repository.SubscriptionRepository,
		history repository.TransitionRepository,
	) error) error
}
