// Package memory implementa los puertos de persistencia en memoria. Cada repositorio copia las
// entidades al guardar y al leer para que el llamador nunca comparta punteros con el almacén.
package memory

import (
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func cloneToken(t *entity.AccessToken) *entity.AccessToken {
	c := *t
	c.ExpiresAt = cloneTime(t.ExpiresAt)
	c.RevokedAt = cloneTime(t.RevokedAt)
	return &c
}

func cloneSubscription(s *entity.Subscription) *entity.Subscription {
	c := *s
	c.EditableFields = append([]string(nil), s.EditableFields...)
	return &c
}

func cloneTransition(r *entity.TransitionRecord) *entity.TransitionRecord {
	c := *r
	return &c
}

func cloneAudit(a *entity.AuditEntry) *entity.AuditEntry {
	c := *a
	c.RequiredRoles = append([]entity.Role(nil), a.RequiredRoles...)
	return &c
}
