package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var (
	_ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)
	_ repository.TransitionRepository   = (*TransitionRepo)(nil)
)

const subscriptionColumns = `id, emisor_id, plan_id, state, start_date, end_date, notes, editable_fields,
	state_changed_at, created_at, updated_at`

// SubscriptionRepo suscripciones sobre PostgreSQL.
type SubscriptionRepo struct {
	db Querier
}

// NewSubscriptionRepository construye el repositorio.
func NewSubscriptionRepository(db Querier) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Create persiste una suscripción. (emisor_id, plan_id) es único.
func (r *SubscriptionRepo) Create(ctx context.Context, s *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, emisor_id, plan_id, state, start_date, end_date, notes, editable_fields, state_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.EmisorID, s.PlanID, string(s.State), s.StartDate, s.EndDate, s.Notes, editable(s.EditableFields),
		s.StateChangedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByID obtiene una suscripción.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
}

// GetByEmisorAndPlan obtiene la asociación emisor+plan.
func (r *SubscriptionRepo) GetByEmisorAndPlan(ctx context.Context, emisorID, planID string) (*entity.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE emisor_id = $1 AND plan_id = $2`, emisorID, planID)
}

func (r *SubscriptionRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

// ListByEmisor lista las suscripciones de un emisor.
func (r *SubscriptionRepo) ListByEmisor(ctx context.Context, emisorID string) ([]*entity.Subscription, error) {
	if _, err := uuid.Parse(emisorID); err != nil {
		return []*entity.Subscription{}, nil
	}
	return r.list(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE emisor_id = $1 ORDER BY created_at DESC`, emisorID)
}

// ListByStates lista las suscripciones en alguno de los estados, ordenadas por id.
func (r *SubscriptionRepo) ListByStates(ctx context.Context, states []entity.SubscriptionState) ([]*entity.Subscription, error) {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, string(s))
	}
	return r.list(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE state = ANY($1) ORDER BY id`, names)
}

func (r *SubscriptionRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update reescribe los campos mutables.
func (r *SubscriptionRepo) Update(ctx context.Context, s *entity.Subscription) error {
	query := `
		UPDATE subscriptions SET plan_id = $2, state = $3, start_date = $4, end_date = $5, notes = $6,
			editable_fields = $7, state_changed_at = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		s.ID, s.PlanID, string(s.State), s.StartDate, s.EndDate, s.Notes, editable(s.EditableFields),
		s.StateChangedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func editable(fields []string) []string {
	if fields == nil {
		return []string{}
	}
	return fields
}

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var (
		s     entity.Subscription
		state string
	)
	if err := row.Scan(&s.ID, &s.EmisorID, &s.PlanID, &state, &s.StartDate, &s.EndDate, &s.Notes, &s.EditableFields,
		&s.StateChangedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.State = entity.SubscriptionState(state)
	return &s, nil
}

// TransitionRepo historial append-only sobre PostgreSQL.
type TransitionRepo struct {
	db Querier
}

// NewTransitionRepository construye el repositorio.
func NewTransitionRepository(db Querier) *TransitionRepo {
	return &TransitionRepo{db: db}
}

const transitionColumns = `id, subscription_id, seq, from_state, to_state, actor_id, reason, at`

// Append inserta un registro. (subscription_id, seq) es único.
func (r *TransitionRepo) Append(ctx context.Context, rec *entity.TransitionRecord) error {
	query := `
		INSERT INTO subscription_transitions (id, subscription_id, seq, from_state, to_state, actor_id, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.SubscriptionID, rec.Seq, string(rec.From), string(rec.To), rec.ActorID, rec.Reason, rec.At)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// ListBySubscription devuelve el historial por timestamp ascendente.
func (r *TransitionRepo) ListBySubscription(ctx context.Context, subscriptionID string) ([]*entity.TransitionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+transitionColumns+` FROM subscription_transitions WHERE subscription_id = $1 ORDER BY at ASC, seq ASC`,
		subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.TransitionRecord, 0)
	for rows.Next() {
		rec, err := scanTransition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Last devuelve el registro más reciente o nil.
func (r *TransitionRepo) Last(ctx context.Context, subscriptionID string) (*entity.TransitionRecord, error) {
	rec, err := scanTransition(r.db.QueryRow(ctx,
		`SELECT `+transitionColumns+` FROM subscription_transitions WHERE subscription_id = $1 ORDER BY seq DESC LIMIT 1`,
		subscriptionID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("last transition: %w", err)
	}
	return rec, nil
}

func scanTransition(row pgx.Row) (*entity.TransitionRecord, error) {
	var (
		rec      entity.TransitionRecord
		from, to string
	)
	if err := row.Scan(&rec.ID, &rec.SubscriptionID, &rec.Seq, &from, &to, &rec.ActorID, &rec.Reason, &rec.At); err != nil {
		return nil, err
	}
	rec.From = entity.SubscriptionState(from)
	rec.To = entity.SubscriptionState(to)
	return &rec, nil
}
