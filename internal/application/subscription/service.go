// Package subscription orquesta la máquina de estados de suscripciones: creación, transiciones
// validadas contra el catálogo, historial, campos editables por estado y barrido periódico.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	domainsub "github.com/jhoicas/Facturacion-api/internal/domain/subscription"
)

// Deps puertos que necesita el servicio.
type Deps struct {
	Catalog  *domainsub.Catalog
	Runner   SubscriptionTxRunner
	Subs     repository.SubscriptionRepository // lecturas fuera de transacción
	History  repository.TransitionRepository
	Plans    repository.PlanRepository
	Emisores repository.EmisorRepository
	Audit    repository.AuditRepository
	Log      zerolog.Logger
	Now      func() time.Time // nil = time.Now
}

// Service casos de uso de suscripciones.
type Service struct {
	catalog  *domainsub.Catalog
	runner   SubscriptionTxRunner
	subs     repository.SubscriptionRepository
	history  repository.TransitionRepository
	plans    repository.PlanRepository
	emisores repository.EmisorRepository
	audit    repository.AuditRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewService construye el servicio.
func NewService(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:  d.Catalog,
		runner:   d.Runner,
		subs:     d.Subs,
		history:  d.History,
		plans:    d.Plans,
		emisores: d.Emisores,
		audit:    d.Audit,
		log:      d.Log,
		now:      now,
	}
}

// Catalog devuelve el catálogo de estados en uso.
func (s *Service) Catalog() *domainsub.Catalog { return s.catalog }

// CreateInput datos para asociar un emisor a un plan.
type CreateInput struct {
	EmisorID  string
	PlanID    string
	StartDate time.Time // cero = ahora
	Notes     string
}

// Create crea la suscripción en el estado inicial del catálogo. Una asociación emisor+plan existente
// devuelve domain.ErrDuplicate.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID string) (*entity.Subscription, error) {
	if in.EmisorID == "" || in.PlanID == "" {
		return nil, fmt.Errorf("emisor_id y plan_id son obligatorios: %w", domain.ErrInvalidInput)
	}
	emisor, err := s.emisores.GetByID(ctx, in.EmisorID)
	if err != nil {
		return nil, storeErr("leer emisor", err)
	}
	if emisor == nil {
		return nil, fmt.Errorf("emisor %s: %w", in.EmisorID, domain.ErrNotFound)
	}
	plan, err := s.plans.GetByID(ctx, in.PlanID)
	if err != nil {
		return nil, storeErr("leer plan", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %s: %w", in.PlanID, domain.ErrNotFound)
	}
	if !plan.Active {
		return nil, fmt.Errorf("plan %s inactivo: %w", plan.Code, domain.ErrInvalidInput)
	}
	existing, err := s.subs.GetByEmisorAndPlan(ctx, in.EmisorID, in.PlanID)
	if err != nil {
		return nil, storeErr("buscar suscripción", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("el emisor ya tiene suscripción %s a este plan: %w", existing.ID, domain.ErrDuplicate)
	}

	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	initial := s.catalog.Initial()
	sub := &entity.Subscription{
		ID:             uuid.NewString(),
		EmisorID:       in.EmisorID,
		PlanID:         in.PlanID,
		State:          initial,
		StartDate:      start,
		EndDate:        plan.EndDate(start),
		Notes:          in.Notes,
		EditableFields: s.catalog.Editable(initial),
		StateChangedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("suscripción duplicada: %w", err)
		}
		return nil, storeErr("crear suscripción", err)
	}
	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("emisor_id", sub.EmisorID).
		Str("plan_id", sub.PlanID).
		Str("actor_id", actorID).
		Msg("suscripción creada")
	return sub, nil
}

// Get devuelve la suscripción o domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*entity.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("leer suscripción", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("suscripción %s: %w", id, domain.ErrNotFound)
	}
	return sub, nil
}

// ListByEmisor lista las suscripciones de un emisor.
func (s *Service) ListByEmisor(ctx context.Context, emisorID string) ([]*entity.Subscription, error) {
	list, err := s.subs.ListByEmisor(ctx, emisorID)
	if err != nil {
		return nil, storeErr("listar suscripciones", err)
	}
	return list, nil
}

// ListPlans lista el catálogo de planes.
func (s *Service) ListPlans(ctx context.Context, onlyActive bool) ([]*entity.Plan, error) {
	list, err := s.plans.List(ctx, onlyActive)
	if err != nil {
		return nil, storeErr("listar planes", err)
	}
	return list, nil
}

// CurrentState devuelve el estado actual.
func (s *Service) CurrentState(ctx context.Context, id string) (entity.SubscriptionState, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return sub.State, nil
}

// AvailableTransitions devuelve los destinos permitidos ahora (tabla ∩ guardas temporales).
func (s *Service) AvailableTransitions(ctx context.Context, id string) ([]entity.SubscriptionState, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.catalog.Available(sub, s.now()), nil
}

// ChangeState aplica una transición manual. Si target no está entre las transiciones disponibles
// en el momento de la llamada devuelve domain.ErrIllegalTransition y lo registra en auditoría.
func (s *Service) ChangeState(ctx context.Context, id string, target entity.SubscriptionState, actorID, reason string) (*entity.Subscription, error) {
	var (
		out  *entity.Subscription
		from entity.SubscriptionState
	)
	err := s.runner.RunForSubscription(ctx, id, func(subs repository.SubscriptionRepository, history repository.TransitionRepository) error {
		sub, err := subs.GetByID(ctx, id)
		if err != nil {
			return storeErr("leer suscripción", err)
		}
		if sub == nil {
			return fmt.Errorf("suscripción %s: %w", id, domain.ErrNotFound)
		}
		from = sub.State
		now := s.now()
		if !s.catalog.CanTransition(sub, target, now) {
			return fmt.Errorf("%s → %s (disponibles: %v): %w", sub.State, target, s.catalog.Available(sub, now), domain.ErrIllegalTransition)
		}
		if _, err := s.apply(ctx, subs, history, sub, target, actorID, reason, now); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			s.recordIllegal(ctx, id, from, target, actorID, err)
		}
		return nil, err
	}
	s.log.Info().
		Str("subscription_id", id).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("actor_id", actorID).
		Msg("transición aplicada")
	return out, nil
}

// EvaluateStates barre las suscripciones no terminales y aplica las reglas automáticas cuya guarda
// se cumple, con actor "system". Devuelve las suscripciones que cambiaron. Sin tiempo transcurrido
// una segunda ejecución no produce transiciones.
func (s *Service) EvaluateStates(ctx context.Context) ([]*entity.Subscription, error) {
	candidates, err := s.subs.ListByStates(ctx, s.catalog.NonTerminal())
	if err != nil {
		return nil, storeErr("listar suscripciones", err)
	}
	var (
		changed []*entity.Subscription
		errs    []error
	)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		id := c.ID
		var updated *entity.Subscription
		err := s.runner.RunForSubscription(ctx, id, func(subs repository.SubscriptionRepository, history repository.TransitionRepository) error {
			sub, err := subs.GetByID(ctx, id)
			if err != nil {
				return storeErr("leer suscripción", err)
			}
			if sub == nil {
				return nil
			}
			now := s.now()
			to, reason, ok := s.catalog.AutoTransition(sub, now)
			if !ok {
				return nil
			}
			rec, err := s.apply(ctx, subs, history, sub, to, entity.SystemActor, reason, now)
			if err != nil {
				return err
			}
			s.log.Info().
				Str("subscription_id", id).
				Str("from", string(rec.From)).
				Str("to", string(rec.To)).
				Msg("transición automática")
			updated = sub
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("suscripción %s: %w", id, err))
			continue
		}
		if updated != nil {
			changed = append(changed, updated)
		}
	}
	return changed, errors.Join(errs...)
}

// History devuelve el historial por timestamp ascendente.
func (s *Service) History(ctx context.Context, id string) ([]*entity.TransitionRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.history.ListBySubscription(ctx, id)
	if err != nil {
		return nil, storeErr("leer historial", err)
	}
	return list, nil
}

// FieldPatch campos a modificar; nil = sin cambio.
type FieldPatch struct {
	PlanID    *string
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
}

// UpdateFields modifica campos de la suscripción si el estado actual los declara editables.
// Cambiar plan o fecha de inicio sin fecha fin explícita recalcula la fecha fin con el periodo del plan.
func (s *Service) UpdateFields(ctx context.Context, id string, patch FieldPatch, actorID string) (*entity.Subscription, error) {
	var out *entity.Subscription
	err := s.runner.RunForSubscription(ctx, id, func(subs repository.SubscriptionRepository, _ repository.TransitionRepository) error {
		sub, err := subs.GetByID(ctx, id)
		if err != nil {
			return storeErr("leer suscripción", err)
		}
		if sub == nil {
			return fmt.Errorf("suscripción %s: %w", id, domain.ErrNotFound)
		}
		// orden fijo: el error siempre nombra el primer campo no editable
		for _, f := range []struct {
			name string
			set  bool
		}{
			{entity.FieldPlanID, patch.PlanID != nil},
			{entity.FieldStartDate, patch.StartDate != nil},
			{entity.FieldEndDate, patch.EndDate != nil},
			{entity.FieldNotes, patch.Notes != nil},
		} {
			if f.set && !sub.CanEdit(f.name) {
				return fmt.Errorf("%s en estado %s: %w", f.name, sub.State, domain.ErrFieldNotEditable)
			}
		}

		recompute := false
		if patch.PlanID != nil && *patch.PlanID != sub.PlanID {
			plan, err := s.plans.GetByID(ctx, *patch.PlanID)
			if err != nil {
				return storeErr("leer plan", err)
			}
			if plan == nil {
				return fmt.Errorf("plan %s: %w", *patch.PlanID, domain.ErrNotFound)
			}
			sub.PlanID = plan.ID
			recompute = true
		}
		if patch.StartDate != nil {
			sub.StartDate = *patch.StartDate
			recompute = true
		}
		if patch.EndDate != nil {
			sub.EndDate = *patch.EndDate
		} else if recompute {
			plan, err := s.plans.GetByID(ctx, sub.PlanID)
			if err != nil {
				return storeErr("leer plan", err)
			}
			if plan != nil {
				sub.EndDate = plan.EndDate(sub.StartDate)
			}
		}
		if patch.Notes != nil {
			sub.Notes = *patch.Notes
		}
		if !sub.EndDate.After(sub.StartDate) {
			return fmt.Errorf("end_date debe ser posterior a start_date: %w", domain.ErrInvalidInput)
		}
		sub.UpdatedAt = s.now()
		if err := subs.Update(ctx, sub); err != nil {
			return storeErr("actualizar suscripción", err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("subscription_id", id).Str("actor_id", actorID).Msg("suscripción actualizada")
	return out, nil
}

// apply escribe el nuevo estado y agrega el registro de historial. Debe llamarse dentro del runner.
// El timestamp del registro nunca es anterior al último registrado.
func (s *Service) apply(ctx context.Context, subs repository.SubscriptionRepository, history repository.TransitionRepository,
	sub *entity.Subscription, target entity.SubscriptionState, actorID, reason string, now time.Time) (*entity.TransitionRecord, error) {
	last, err := history.Last(ctx, sub.ID)
	if err != nil {
		return nil, storeErr("leer último registro", err)
	}
	at, seq := now, 1
	if at.Before(sub.StateChangedAt) {
		at = sub.StateChangedAt
	}
	if last != nil {
		seq = last.Seq + 1
		if at.Before(last.At) {
			at = last.At
		}
	}
	rec := &entity.TransitionRecord{
		ID:             uuid.NewString(),
		SubscriptionID: sub.ID,
		Seq:            seq,
		From:           sub.State,
		To:             target,
		ActorID:        actorID,
		Reason:         reason,
		At:             at,
	}
	sub.State = target
	sub.EditableFields = s.catalog.Editable(target)
	sub.StateChangedAt = at
	sub.UpdatedAt = now
	if err := subs.Update(ctx, sub); err != nil {
		return nil, storeErr("actualizar estado", err)
	}
	if err := history.Append(ctx, rec); err != nil {
		return nil, storeErr("agregar historial", err)
	}
	return rec, nil
}

func (s *Service) recordIllegal(ctx context.Context, id string, from, to entity.SubscriptionState, actorID string, cause error) {
	entry := &entity.AuditEntry{
		ID:       uuid.NewString(),
		Kind:     entity.AuditIllegalTransition,
		ActorID:  actorID,
		Resource: id,
		Detail:   fmt.Sprintf("%s → %s", from, to),
		At:       s.now(),
	}
	s.log.Warn().
		Str("subscription_id", id).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor_id", actorID).
		Msg("transición rechazada")
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Error().Err(err).AnErr("cause", cause).Str("subscription_id", id).Msg("registrar transición rechazada")
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("subscription: %s: %w", op, err)
	}
	return fmt.Errorf("subscription: %s: %w: %w", op, domain.ErrUnavailable, err)
}
