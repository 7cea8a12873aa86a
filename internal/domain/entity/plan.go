package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan es un plan comercial del catálogo. Su periodo determina la fecha fin de una suscripción.
type Plan struct {
	ID           string
	Code         string
	Name         string
	PeriodMonths int
	PeriodDays   int
	Price        decimal.Decimal
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EndDate calcula la fecha fin para una suscripción que inicia en start.
func (p *Plan) EndDate(start time.Time) time.Time {
	return start.AddDate(0, p.PeriodMonths, p.PeriodDays)
}
