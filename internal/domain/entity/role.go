package entity

import "strings"

// Role es el rol de un actor. Conjunto cerrado: cualquier valor fuera de roleTable es inválido.
type Role string

// Roles del sistema, de mayor a menor privilegio.
const (
	RoleAdministrador Role = "administrador"
	RoleDistribuidor  Role = "distribuidor"
	RoleEmisor        Role = "emisor"
	RoleGerente       Role = "gerente"
	RoleCajero        Role = "cajero"
)

type roleInfo struct {
	rank           int
	label          string
	mayCreate      []Role
	administrative bool
	tenantPanel    bool
}

// roleTable es la única fuente de verdad de la jerarquía. Toda constante Role debe tener fila.
var roleTable = map[Role]roleInfo{
	RoleAdministrador: {
		rank:           5,
		label:          "Administrador",
		mayCreate:      []Role{RoleAdministrador, RoleDistribuidor, RoleEmisor, RoleGerente, RoleCajero},
		administrative: true,
	},
	RoleDistribuidor: {
		rank:           4,
		label:          "Distribuidor",
		mayCreate:      []Role{RoleEmisor, RoleGerente, RoleCajero},
		administrative: true,
	},
	RoleEmisor: {
		rank:        3,
		label:       "Emisor",
		mayCreate:   []Role{RoleGerente, RoleCajero},
		tenantPanel: true,
	},
	RoleGerente: {
		rank:        2,
		label:       "Gerente",
		mayCreate:   []Role{RoleCajero},
		tenantPanel: true,
	},
	RoleCajero: {
		rank:        1,
		label:       "Cajero",
		tenantPanel: true,
	},
}

// AllRoles devuelve los roles en orden de privilegio descendente.
func AllRoles() []Role {
	return []Role{RoleAdministrador, RoleDistribuidor, RoleEmisor, RoleGerente, RoleCajero}
}

// ParseRole convierte un texto (sin distinguir mayúsculas) en Role. ok=false si no existe.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid informa si el rol pertenece al conjunto cerrado.
func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

// Rank devuelve el nivel de privilegio (5 = administrador … 1 = cajero, 0 = inválido).
func (r Role) Rank() int { return roleTable[r].rank }

// Label devuelve el nombre legible del rol.
func (r Role) Label() string { return roleTable[r].label }

// IsAdministrative informa si el rol opera el panel de administración (no pertenece a un emisor).
func (r Role) IsAdministrative() bool { return roleTable[r].administrative }

// IsTenantPanel informa si el rol opera el panel de un emisor.
func (r Role) IsTenantPanel() bool { return roleTable[r].tenantPanel }

// MayCreate devuelve una copia de los roles que este rol puede asignar a nuevos actores.
func (r Role) MayCreate() []Role {
	src := roleTable[r].mayCreate
	out := make([]Role, len(src))
	copy(out, src)
	return out
}

// CanCreate informa si un actor con este rol puede crear un actor con el rol target.
func (r Role) CanCreate(target Role) bool {
	for _, c := range roleTable[r].mayCreate {
		if c == target {
			return true
		}
	}
	return false
}

// In informa si el rol está en el conjunto dado (coincidencia exacta, sin jerarquía).
func (r Role) In(set []Role) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }
