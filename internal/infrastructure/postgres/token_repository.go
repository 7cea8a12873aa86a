package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.AccessTokenRepository = (*TokenRepo)(nil)

const tokenColumns = `id, actor_id, secret_hash, device_name, user_agent, ip_address, created_at, expires_at,
	revoked_at, revoke_reason`

// TokenRepo almacén de credenciales sobre PostgreSQL.
type TokenRepo struct {
	db Querier
}

// NewTokenRepository construye el repositorio.
func NewTokenRepository(db Querier) *TokenRepo {
	return &TokenRepo{db: db}
}

// Create persiste un token nuevo.
func (r *TokenRepo) Create(ctx context.Context, t *entity.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, actor_id, secret_hash, device_name, user_agent, ip_address, created_at, expires_at, revoked_at, revoke_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.ActorID, t.SecretHash, t.Device.Name, t.Device.UserAgent, t.Device.IPAddress,
		t.CreatedAt, t.ExpiresAt, t.RevokedAt, t.RevokeReason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}

// GetByID obtiene un token por ID.
func (r *TokenRepo) GetByID(ctx context.Context, id string) (*entity.AccessToken, error) {
	t, err := scanToken(r.db.QueryRow(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access token: %w", err)
	}
	return t, nil
}

// ListByActor devuelve los tokens del actor del más antiguo al más reciente.
func (r *TokenRepo) ListByActor(ctx context.Context, actorID string) ([]*entity.AccessToken, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE actor_id = $1 ORDER BY created_at ASC, id ASC`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list access tokens: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.AccessToken, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access token: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Revoke marca el token como revocado si aún no lo está.
func (r *TokenRepo) Revoke(ctx context.Context, id, reason string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE access_tokens SET revoked_at = $2, revoke_reason = $3 WHERE id = $1 AND revoked_at IS NULL`,
		id, at, reason)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM access_tokens WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check access token: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

// RevokeAllByActor revoca los tokens vigentes del actor.
func (r *TokenRepo) RevokeAllByActor(ctx context.Context, actorID, reason string, at time.Time) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE access_tokens SET revoked_at = $2, revoke_reason = $3 WHERE actor_id = $1 AND revoked_at IS NULL`,
		actorID, at, reason)
	if err != nil {
		return 0, fmt.Errorf("revoke access tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*entity.AccessToken, error) {
	var t entity.AccessToken
	if err := row.Scan(&t.ID, &t.ActorID, &t.SecretHash, &t.Device.Name, &t.Device.UserAgent, &t.Device.IPAddress,
		&t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.RevokeReason); err != nil {
		return nil, err
	}
	return &t, nil
}
