package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo rastro de auditoría sobre PostgreSQL.
type AuditRepo struct {
	db Querier
}

// NewAuditRepository construye el repositorio.
func NewAuditRepository(db Querier) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record inserta una entrada.
func (r *AuditRepo) Record(ctx context.Context, e *entity.AuditEntry) error {
	roles := make([]string, 0, len(e.RequiredRoles))
	for _, role := range e.RequiredRoles {
		roles = append(roles, string(role))
	}
	query := `
		INSERT INTO audit_entries (id, kind, actor_id, held_role, required_roles, method, path, resource, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.Kind, e.ActorID, string(e.HeldRole), roles, e.Method, e.Path, e.Resource, e.Detail, e.At)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List consulta el rastro por fecha descendente.
func (r *AuditRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if !f.Since.IsZero() {
		add("at >= $%d", f.Since)
	}
	query := `SELECT id, kind, actor_id, held_role, required_roles, method, path, resource, detail, at FROM audit_entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.AuditEntry, 0)
	for rows.Next() {
		var (
			e     entity.AuditEntry
			held  string
			roles []string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.ActorID, &held, &roles, &e.Method, &e.Path, &e.Resource, &e.Detail, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.HeldRole = entity.Role(held)
		for _, role := range roles {
			e.RequiredRoles = append(e.RequiredRoles, entity.Role(role))
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
