package entity

import "time"

// Estados de ciclo de vida de un User.
const (
	UserStatusActive              = "active"
	UserStatusPendingVerification = "pending_verification"
	UserStatusDisabled            = "disabled"
)

// User representa un actor del sistema. Los roles administrativos no pertenecen a un emisor.
type User struct {
	ID             string
	EmisorID       string // vacío para administrador y distribuidor
	Username       string // normalizado (ver pkg/textnorm)
	Email          string // normalizado
	Identification string // cédula / RUC de la persona
	Name           string
	Role           Role
	Status         string
	PasswordHash   string // bcrypt hash, nunca plano en dominio después de persistir
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive informa si el actor puede autenticarse.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}
