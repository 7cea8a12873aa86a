package dto

import "time"

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en el caso de uso).
// EmisorID vacío toma el emisor del creador.
type CreateUserRequest struct {
	EmisorID       string `json:"emisor_id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Identification string `json:"identification"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Role           string `json:"role"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID             string    `json:"id"`
	EmisorID       string    `json:"emisor_id,omitempty"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Identification string    `json:"identification,omitempty"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	RoleLabel      string    `json:"role_label"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserListResponse lista paginada de usuarios de un emisor.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// RoleResponse fila de la jerarquía de roles.
type RoleResponse struct {
	Role           string   `json:"role"`
	Label          string   `json:"label"`
	Rank           int      `json:"rank"`
	MayCreate      []string `json:"may_create"`
	Administrative bool     `json:"administrative"`
	TenantPanel    bool     `json:"tenant_panel"`
}
