package entity

import "time"

// SubscriptionState es un estado del catálogo de suscripciones (la tabla vive en domain/subscription).
type SubscriptionState string

// Estados del catálogo por defecto.
const (
	SubscriptionPending   SubscriptionState = "pending"
	SubscriptionActive    SubscriptionState = "active"
	SubscriptionSuspended SubscriptionState = "suspended"
	SubscriptionExpired   SubscriptionState = "expired"
	SubscriptionCancelled SubscriptionState = "cancelled"
)

// Campos de Subscription que un estado puede declarar editables.
const (
	FieldPlanID    = "plan_id"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldNotes     = "notes"
)

// SystemActor identifica transiciones disparadas por el barrido periódico.
const SystemActor = "system"

// Subscription asocia un emisor con un plan durante un periodo, gobernada por la máquina de estados.
type Subscription struct {
	ID             string
	EmisorID       string
	PlanID         string
	State          SubscriptionState
	StartDate      time.Time
	EndDate        time.Time
	Notes          string
	EditableFields []string
	StateChangedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanEdit informa si el campo es editable en el estado actual.
func (s *Subscription) CanEdit(field string) bool {
	for _, f := range s.EditableFields {
		if f == field {
			return true
		}
	}
	return false
}

// TransitionRecord es una entrada inmutable del historial de estados.
type TransitionRecord struct {
	ID             string
	SubscriptionID string
	Seq            int
	From           SubscriptionState
	To             SubscriptionState
	ActorID        string // SystemActor para el barrido
	Reason         string
	At             time.Time
}
