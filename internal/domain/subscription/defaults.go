package subscription

import "github.com/jhoicas/Facturacion-api/internal/domain/entity"

// DefaultDefinition es el catálogo que se usa cuando no hay SUBSCRIPTION_CATALOG_PATH.
func DefaultDefinition() CatalogDefinition {
	return CatalogDefinition{
		Initial: string(entity.SubscriptionPending),
		States: []StateDefinition{
			{
				Name:     string(entity.SubscriptionPending),
				Next:     []string{string(entity.SubscriptionActive), string(entity.SubscriptionCancelled)},
				Editable: []string{entity.FieldPlanID, entity.FieldStartDate, entity.FieldEndDate, entity.FieldNotes},
			},
			{
				Name:     string(entity.SubscriptionActive),
				Next:     []string{string(entity.SubscriptionSuspended), string(entity.SubscriptionExpired), string(entity.SubscriptionCancelled)},
				Editable: []string{entity.FieldEndDate, entity.FieldNotes},
			},
			{
				Name:     string(entity.SubscriptionSuspended),
				Next:     []string{string(entity.SubscriptionActive), string(entity.SubscriptionExpired)},
				Editable: []string{entity.FieldEndDate, entity.FieldNotes},
			},
			{Name: string(entity.SubscriptionExpired), Terminal: true},
			{Name: string(entity.SubscriptionCancelled), Terminal: true},
		},
		Guards: map[string]string{
			string(entity.SubscriptionActive): GuardWithinPeriod,
		},
		Auto: []AutoRuleDefinition{
			{
				From:   []string{string(entity.SubscriptionActive), string(entity.SubscriptionSuspended)},
				To:     string(entity.SubscriptionExpired),
				When:   GuardPastEnd,
				Reason: "periodo del plan finalizado",
			},
			{
				From:   []string{string(entity.SubscriptionPending)},
				To:     string(entity.SubscriptionCancelled),
				When:   GuardPastEnd,
				Reason: "periodo finalizado sin activación",
			},
		},
	}
}

// DefaultCatalog compila DefaultDefinition. La definición es estática, un error aquí es un defecto.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinition())
	if err != nil {
		panic("catálogo por defecto inválido: " + err.Error())
	}
	return c
}
