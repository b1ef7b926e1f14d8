package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"dubclub-auth/internal/domain"
)

// socialAppKey no tiene uso funcional para este provider; la columna tiene
// constraint not-null asi que se guarda un placeholder constante.
const socialAppKey = "1"

// SocialAppRepository registra la configuracion de la app OAuth del
// provider. Get-or-create idempotente, invocado recien cuando hace falta
// para evitar problemas de orden con la carga de configuracion.
type SocialAppRepository interface {
	GetOrCreate(ctx context.Context, provider, clientID, secret string) (domain.SocialApp, error)
}

// PgSocialAppRepository implementa SocialAppRepository usando pgxpool.
type PgSocialAppRepository struct {
	pool *pgxpool.Pool
}

func NewPgSocialAppRepository(pool *pgxpool.Pool) *PgSocialAppRepository {
	return &PgSocialAppRepository{pool: pool}
}

func (r *PgSocialAppRepository) GetOrCreate(ctx context.Context, provider, clientID, secret string) (domain.SocialApp, error) {
	const insert = `
		INSERT INTO social_apps (provider, client_id, secret, key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, insert, provider, clientID, secret, socialAppKey); err != nil {
		return domain.SocialApp{}, err
	}

	// Si ya existia, se devuelve el registro previo sin modificar.
	const query = `
		SELECT id, provider, client_id, secret, key
		FROM social_apps
		WHERE provider = $1
	`
	var app domain.SocialApp
	err := r.pool.QueryRow(ctx, query, provider).Scan(
		&app.ID,
		&app.Provider,
		&app.ClientID,
		&app.Secret,
		&app.Key,
	)
	if err != nil {
		return domain.SocialApp{}, err
	}
	return app, nil
}
