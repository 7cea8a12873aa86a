package entity

import "time"

// Emisor es el tenant: la entidad que factura y posee una suscripción.
type Emisor struct {
	ID          string
	RUC         string
	RazonSocial string
	Status      string // active, inactive
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
