// Package subscription contiene el catálogo de estados de una suscripción como tabla de datos:
// estado → siguientes permitidos, guardas temporales por estado destino y reglas automáticas
// que aplica el barrido periódico. El motor no conoce etiquetas concretas.
package subscription

import (
	"fmt"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// StateDefinition declara un estado del catálogo.
type StateDefinition struct {
	Name     string   `mapstructure:"name" json:"name"`
	Next     []string `mapstructure:"next" json:"next"`
	Terminal bool     `mapstructure:"terminal" json:"terminal"`
	Editable []string `mapstructure:"editable" json:"editable"`
}

// AutoRuleDefinition declara una transición que el barrido aplica cuando se cumple la guarda When.
type AutoRuleDefinition struct {
	From   []string `mapstructure:"from" json:"from"`
	To     string   `mapstructure:"to" json:"to"`
	When   string   `mapstructure:"when" json:"when"`
	Reason string   `mapstructure:"reason" json:"reason"`
}

// CatalogDefinition es la forma serializable del catálogo (archivo YAML/JSON o valor por defecto).
type CatalogDefinition struct {
	Initial string               `mapstructure:"initial" json:"initial"`
	States  []StateDefinition    `mapstructure:"states" json:"states"`
	Guards  map[string]string    `mapstructure:"guards" json:"guards"` // estado destino → nombre de guarda
	Auto    []AutoRuleDefinition `mapstructure:"auto" json:"auto"`
}

// Guard es un predicado temporal sobre una suscripción.
type Guard func(sub *entity.Subscription, now time.Time) bool

// Nombres de guardas disponibles para el catálogo.
const (
	GuardAlways       = "always"
	GuardWithinPeriod = "within_period"
	GuardPastEnd      = "past_end"
	GuardNotStarted   = "not_started"
)

var builtinGuards = map[string]Guard{
	GuardAlways:       func(*entity.Subscription, time.Time) bool { return true },
	GuardWithinPeriod: func(s *entity.Subscription, now time.Time) bool { return !now.After(s.EndDate) },
	GuardPastEnd:      func(s *entity.Subscription, now time.Time) bool { return now.After(s.EndDate) },
	GuardNotStarted:   func(s *entity.Subscription, now time.Time) bool { return now.Before(s.StartDate) },
}

var editableFields = map[string]bool{
	entity.FieldPlanID:    true,
	entity.FieldStartDate: true,
	entity.FieldEndDate:   true,
	entity.FieldNotes:     true,
}

type stateNode struct {
	next     []entity.SubscriptionState
	terminal bool
	editable []string
}

type autoRule struct {
	to     entity.SubscriptionState
	when   Guard
	reason string
}

// Catalog es la tabla compilada e inmutable. Seguro para uso concurrente.
type Catalog struct {
	initial entity.SubscriptionState
	order   []entity.SubscriptionState
	states  map[entity.SubscriptionState]stateNode
	guards  map[entity.SubscriptionState]Guard
	auto    map[entity.SubscriptionState][]autoRule
}

// NewCatalog valida la definición y la compila.
func NewCatalog(def CatalogDefinition) (*Catalog, error) {
	c := &Catalog{
		states: make(map[entity.SubscriptionState]stateNode, len(def.States)),
		guards: make(map[entity.SubscriptionState]Guard),
		auto:   make(map[entity.SubscriptionState][]autoRule),
	}
	if len(def.States) == 0 {
		return nil, fmt.Errorf("catálogo: no hay estados definidos")
	}
	for _, sd := range def.States {
		name := entity.SubscriptionState(sd.Name)
		if name == "" {
			return nil, fmt.Errorf("catálogo: estado sin nombre")
		}
		if _, dup := c.states[name]; dup {
			return nil, fmt.Errorf("catálogo: estado %q duplicado", name)
		}
		for _, f := range sd.Editable {
			if !editableFields[f] {
				return nil, fmt.Errorf("catálogo: estado %q declara campo desconocido %q", name, f)
			}
		}
		if sd.Terminal && len(sd.Next) > 0 {
			return nil, fmt.Errorf("catálogo: el estado terminal %q no puede tener salidas", name)
		}
		node := stateNode{terminal: sd.Terminal, editable: append([]string(nil), sd.Editable...)}
		for _, n := range sd.Next {
			node.next = append(node.next, entity.SubscriptionState(n))
		}
		c.states[name] = node
		c.order = append(c.order, name)
	}
	for _, from := range c.order {
		for _, to := range c.states[from].next {
			if _, ok := c.states[to]; !ok {
				return nil, fmt.Errorf("catálogo: %q apunta a estado desconocido %q", from, to)
			}
		}
	}

	c.initial = entity.SubscriptionState(def.Initial)
	if _, ok := c.states[c.initial]; !ok {
		return nil, fmt.Errorf("catálogo: estado inicial %q desconocido", def.Initial)
	}
	if c.states[c.initial].terminal {
		return nil, fmt.Errorf("catálogo: el estado inicial %q no puede ser terminal", def.Initial)
	}

	for target, guardName := range def.Guards {
		st := entity.SubscriptionState(target)
		if _, ok := c.states[st]; !ok {
			return nil, fmt.Errorf("catálogo: guarda para estado desconocido %q", target)
		}
		g, ok := builtinGuards[guardName]
		if !ok {
			return nil, fmt.Errorf("catálogo: guarda desconocida %q", guardName)
		}
		c.guards[st] = g
	}

	targets := make(map[entity.SubscriptionState]bool)
	for _, ad := range def.Auto {
		to := entity.SubscriptionState(ad.To)
		g, ok := builtinGuards[ad.When]
		if !ok {
			return nil, fmt.Errorf("catálogo: regla automática hacia %q con guarda desconocida %q", ad.To, ad.When)
		}
		if len(ad.From) == 0 {
			return nil, fmt.Errorf("catálogo: regla automática hacia %q sin estados origen", ad.To)
		}
		for _, f := range ad.From {
			from := entity.SubscriptionState(f)
			if !c.Allowed(from, to) {
				return nil, fmt.Errorf("catálogo: regla automática %q → %q no está en la tabla", from, to)
			}
			c.auto[from] = append(c.auto[from], autoRule{to: to, when: g, reason: ad.Reason})
		}
		targets[to] = true
	}
	// Un destino automático no puede ser origen de otra regla: el barrido debe alcanzar un
	// punto fijo en una sola pasada.
	for to := range targets {
		if len(c.auto[to]) > 0 {
			return nil, fmt.Errorf("catálogo: reglas automáticas encadenadas a través de %q", to)
		}
	}
	return c, nil
}

// Initial devuelve el estado de una suscripción recién creada.
func (c *Catalog) Initial() entity.SubscriptionState { return c.initial }

// States devuelve los estados en el orden declarado.
func (c *Catalog) States() []entity.SubscriptionState {
	return append([]entity.SubscriptionState(nil), c.order...)
}

// Known informa si el estado existe en el catálogo.
func (c *Catalog) Known(s entity.SubscriptionState) bool {
	_, ok := c.states[s]
	return ok
}

// IsTerminal informa si el estado es terminal.
func (c *Catalog) IsTerminal(s entity.SubscriptionState) bool {
	return c.states[s].terminal
}

// NonTerminal devuelve los estados que el barrido debe evaluar.
func (c *Catalog) NonTerminal() []entity.SubscriptionState {
	var out []entity.SubscriptionState
	for _, s := range c.order {
		if !c.states[s].terminal {
			out = append(out, s)
		}
	}
	return out
}

// Editable devuelve los campos mutables en el estado s.
func (c *Catalog) Editable(s entity.SubscriptionState) []string {
	return append([]string(nil), c.states[s].editable...)
}

// Allowed informa si la arista from → to existe en la tabla (sin evaluar guardas).
// Un lazo from → from solo es válido si la tabla lo declara.
func (c *Catalog) Allowed(from, to entity.SubscriptionState) bool {
	for _, n := range c.states[from].next {
		if n == to {
			return true
		}
	}
	return false
}

// Available devuelve los destinos permitidos desde el estado actual cuyas guardas se cumplen en now.
func (c *Catalog) Available(sub *entity.Subscription, now time.Time) []entity.SubscriptionState {
	out := make([]entity.SubscriptionState, 0, len(c.states[sub.State].next))
	for _, to := range c.states[sub.State].next {
		if g, ok := c.guards[to]; ok && !g(sub, now) {
			continue
		}
		out = append(out, to)
	}
	return out
}

// CanTransition informa si to ∈ Available(sub, now).
func (c *Catalog) CanTransition(sub *entity.Subscription, to entity.SubscriptionState, now time.Time) bool {
	for _, s := range c.Available(sub, now) {
		if s == to {
			return true
		}
	}
	return false
}

// AutoTransition devuelve la primera regla automática aplicable a sub en now.
func (c *Catalog) AutoTransition(sub *entity.Subscription, now time.Time) (entity.SubscriptionState, string, bool) {
	for _, r := range c.auto[sub.State] {
		if r.when(sub, now) && c.CanTransition(sub, r.to, now) {
			return r.to, r.reason, true
		}
	}
	return "", "", false
}
