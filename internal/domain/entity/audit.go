package entity

import "time"

// Tipos de entrada de auditoría.
const (
	AuditAuthzDenied       = "authz_denied"
	AuditIllegalTransition = "illegal_transition"
	AuditUserDenied        = "user_denied" // creación o consulta de usuarios fuera de la jerarquía o del emisor
)

// AuditEntry registra una denegación (de ruta, de jerarquía o de emisor) o una transición rechazada.
type AuditEntry struct {
	ID            string
	Kind          string
	ActorID       string
	HeldRole      Role
	RequiredRoles []Role
	Method        string
	Path          string
	Resource      string // ej. id de suscripción
	Detail        string
	At            time.Time
}
