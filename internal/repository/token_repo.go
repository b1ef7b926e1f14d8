package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"dubclub-auth/internal/domain"
)

// TokenRepository accede a los tokens del subsistema de login social. El
// core solo necesita "el token vigente para la identidad X, o ninguno".
type TokenRepository interface {
	// GetValidToken devuelve el token con expires_at en el futuro.
	// Retorna pgx.ErrNoRows si no hay ninguno vigente.
	GetValidToken(ctx context.Context, identityID int64) (domain.SocialToken, error)
	Save(ctx context.Context, token domain.SocialToken) error
}

// PgTokenRepository implementa TokenRepository usando pgxpool.
type PgTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgTokenRepository(pool *pgxpool.Pool) *PgTokenRepository {
	return &PgTokenRepository{pool: pool}
}

func (r *PgTokenRepository) GetValidToken(ctx context.Context, identityID int64) (domain.SocialToken, error) {
	const query = `
		SELECT id, identity_id, token, expires_at
		FROM social_tokens
		WHERE identity_id = $1 AND expires_at > now()
		ORDER BY expires_at DESC
		LIMIT 1
	`
	var t domain.SocialToken
	err := r.pool.QueryRow(ctx, query, identityID).Scan(
		&t.ID,
		&t.IdentityID,
		&t.Token,
		&t.ExpiresAt,
	)
	if err != nil {
		return domain.SocialToken{}, err
	}
	return t, nil
}

func (r *PgTokenRepository) Save(ctx context.Context, token domain.SocialToken) error {
	// Un token vigente por identidad: cada login exitoso pisa el anterior.
	const query = `
		INSERT INTO social_tokens (identity_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
	`
	_, err := r.pool.Exec(ctx, query, token.IdentityID, token.Token, token.ExpiresAt)
	return err
}
