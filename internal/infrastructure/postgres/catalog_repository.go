package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var (
	_ repository.PlanRepository   = (*PlanRepo)(nil)
	_ repository.EmisorRepository = (*EmisorRepo)(nil)
)

const planColumns = `id, code, name, period_months, period_days, price, active, created_at, updated_at`

// PlanRepo catálogo de planes.
type PlanRepo struct {
	db Querier
}

// NewPlanRepository construye el repositorio.
func NewPlanRepository(db Querier) *PlanRepo {
	return &PlanRepo{db: db}
}

// GetByID obtiene un plan.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	p, err := scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// List devuelve los planes ordenados por código.
func (r *PlanRepo) List(ctx context.Context, onlyActive bool) ([]*entity.Plan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+planColumns+` FROM plans WHERE ($1 = false OR active) ORDER BY code`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPlan(row pgx.Row) (*entity.Plan, error) {
	var p entity.Plan
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.PeriodMonths, &p.PeriodDays, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// EmisorRepo lectura de emisores.
type EmisorRepo struct {
	db Querier
}

// NewEmisorRepository construye el repositorio.
func NewEmisorRepository(db Querier) *EmisorRepo {
	return &EmisorRepo{db: db}
}

// GetByID obtiene un emisor.
func (r *EmisorRepo) GetByID(ctx context.Context, id string) (*entity.Emisor, error) {
	var e entity.Emisor
	err := r.db.QueryRow(ctx,
		`SELECT id, ruc, razon_social, status, created_at, updated_at FROM emisores WHERE id = $1`, id,
	).Scan(&e.ID, &e.RUC, &e.RazonSocial, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get emisor: %w", err)
	}
	return &e, nil
}
