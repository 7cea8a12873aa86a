package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSubscriptionRequest body para POST /api/subscriptions.
type CreateSubscriptionRequest struct {
	EmisorID  string     `json:"emisor_id"`
	PlanID    string     `json:"plan_id"`
	StartDate *time.Time `json:"start_date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// ChangeStateRequest body para POST /api/subscriptions/:id/state.
type ChangeStateRequest struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// UpdateSubscriptionRequest body para PATCH /api/subscriptions/:id. Campos ausentes no cambian.
type UpdateSubscriptionRequest struct {
	PlanID    *string    `json:"plan_id,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// SubscriptionResponse suscripción en respuestas.
type SubscriptionResponse struct {
	ID             string    `json:"id"`
	EmisorID       string    `json:"emisor_id"`
	PlanID         string    `json:"plan_id"`
	State          string    `json:"state"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Notes          string    `json:"notes,omitempty"`
	EditableFields []string  `json:"editable_fields"`
	StateChangedAt time.Time `json:"state_changed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TransitionsResponse destinos disponibles desde el estado actual.
type TransitionsResponse struct {
	State     string   `json:"state"`
	Available []string `json:"available"`
}

// TransitionRecordResponse entrada del historial.
type TransitionRecordResponse struct {
	Seq     int       `json:"seq"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ActorID string    `json:"actor_id"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// HistoryResponse historial completo de una suscripción.
type HistoryResponse struct {
	SubscriptionID string                     `json:"subscription_id"`
	State          string                     `json:"state"`
	Items          []TransitionRecordResponse `json:"items"`
}

// PlanResponse plan del catálogo comercial.
type PlanResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	PeriodMonths int             `json:"period_months"`
	PeriodDays   int             `json:"period_days"`
	Price        decimal.Decimal `json:"price"`
	Active       bool            `json:"active"`
}
