package session

import (
	"time"

	"github.com/jhoicas/Facturacion-api/pkg/config"
)

// Policy es la política de sesiones del proceso. Se construye al arrancar y no cambia.
type Policy struct {
	AllowMultipleSessions  bool
	MaxDevices             *int           // nil = sin límite
	RevokeOldestOnLimit    bool
	TokenExpiration        *time.Duration // nil = sin expiración
	RevokeOnPasswordChange bool
	NotifyNewLogin         bool
}

// DefaultPolicy replica los valores por defecto de la configuración por entorno.
func DefaultPolicy() Policy {
	return Policy{
		AllowMultipleSessions:  true,
		RevokeOldestOnLimit:    true,
		RevokeOnPasswordChange: true,
	}
}

// PolicyFromConfig copia la sección de sesión de la configuración.
func PolicyFromConfig(c config.SessionConfig) Policy {
	p := Policy{
		AllowMultipleSessions:  c.AllowMultipleSessions,
		RevokeOldestOnLimit:    c.RevokeOldestOnLimit,
		RevokeOnPasswordChange: c.RevokeOnPasswordChange,
		NotifyNewLogin:         c.NotifyNewLogin,
	}
	if c.MaxDevices != nil {
		n := *c.MaxDevices
		p.MaxDevices = &n
	}
	if c.TokenExpiration != nil {
		d := *c.TokenExpiration
		p.TokenExpiration = &d
	}
	return p
}

// normalized sube MaxDevices a 1 cuando es menor: un límite de 0 dispositivos no admite ningún login.
func (p Policy) normalized() Policy {
	if p.MaxDevices != nil && *p.MaxDevices < 1 {
		one := 1
		p.MaxDevices = &one
	}
	return p
}

// expiresAt calcula la expiración de un token emitido en now.
func (p Policy) expiresAt(now time.Time) *time.Time {
	if p.TokenExpiration == nil {
		return nil
	}
	t := now.Add(*p.TokenExpiration)
	return &t
}
