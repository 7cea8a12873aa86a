package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Facturacion-api/internal/application/session"
	appsub "github.com/jhoicas/Facturacion-api/internal/application/subscription"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var (
	_ session.ActorTxRunner       = (*TxRunner)(nil)
	_ appsub.SubscriptionTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL serializada por entidad.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunForActor toma pg_advisory_xact_lock sobre la clave del actor; se libera con la transacción.
func (r *TxRunner) RunForActor(ctx context.Context, actorID string, fn func(tokens repository.AccessTokenRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "session:"+actorID); err != nil {
			return fmt.Errorf("lock actor %s: %w: %w", actorID, domain.ErrUnavailable, err)
		}
		return fn(NewTokenRepository(tx))
	})
}

// RunForSubscription bloquea la fila de la suscripción (SELECT … FOR UPDATE). Si la fila no existe
// fn corre igual y es quien responde not found.
func (r *TxRunner) RunForSubscription(ctx context.Context, subscriptionID string, fn func(
	subs repository.SubscriptionRepository,
	history repository.TransitionRepository,
) error) error {
	if _, err := uuid.Parse(subscriptionID); err != nil {
		return fmt.Errorf("suscripción %s: %w", subscriptionID, domain.ErrNotFound)
	}
	return r.run(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM subscriptions WHERE id = $1 FOR UPDATE`, subscriptionID).Scan(&id)
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("lock subscription %s: %w: %w", subscriptionID, domain.ErrUnavailable, err)
		}
		return fn(NewSubscriptionRepository(tx), NewTransitionRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}
