package dto

import "time"

// AuditQuery parámetros para GET /api/audit.
type AuditQuery struct {
	Kind    string `query:"kind"`
	ActorID string `query:"actor_id"`
	Since   string `query:"since"` // RFC3339
	Limit   int    `query:"limit"`
}

// AuditEntryResponse entrada del rastro de auditoría.
type AuditEntryResponse struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ActorID       string    `json:"actor_id,omitempty"`
	HeldRole      string    `json:"held_role,omitempty"`
	RequiredRoles []string  `json:"required_roles,omitempty"`
	Method        string    `json:"method,omitempty"`
	Path          string    `json:"path,omitempty"`
	Resource      string    `json:"resource,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	At            time.Time `json:"at"`
}
