package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthenticated      = errors.New("no autenticado")
	ErrInvalidCredentials   = errors.New("credenciales inválidas")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrSessionLimitExceeded = errors.New("límite de sesiones activas alcanzado")
	ErrIllegalTransition    = errors.New("transición de estado no permitida")
	ErrFieldNotEditable     = errors.New("campo no editable en el estado actual")
	// ErrUnavailable envuelve fallos de infraestructura (DB, red); nunca se reintenta aquí.
	ErrUnavailable = errors.New("servicio de persistencia no disponible")
)
