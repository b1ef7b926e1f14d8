package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dubclub-auth/internal/domain"
)

// IdentityRepository define el contrato de persistencia para identidades.
// Solo id, username y el flag is_active son durables; el perfil vive en
// la cache del proceso.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id int64) (*domain.Identity, error)
	// SaveSyncResult persiste el resultado durable de un sync en un solo
	// commit: flag is_active y membresia completa de grupos. Un lector
	// concurrente ve el estado previo completo o el nuevo completo.
	SaveSyncResult(ctx context.Context, identityID int64, active bool, groupIDs []int64) error
}

// PgIdentityRepository implementa IdentityRepository usando pgxpool.
type PgIdentityRepository struct {
	pool *pgxpool.Pool
}

func NewPgIdentityRepository(pool *pgxpool.Pool) *PgIdentityRepository {
	return &PgIdentityRepository{pool: pool}
}

func (r *PgIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	// Idempotente: el hook de post-login puede correr mas de una vez para
	// el mismo subject a lo largo de la vida de la cuenta.
	const query = `
		INSERT INTO identities (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, identity.ID, identity.Username)
	return err
}

func (r *PgIdentityRepository) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	const query = `
		SELECT id, username
		FROM identities
		WHERE id = $1
	`
	var (
		identityID int64
		username   string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(&identityID, &username)
	if err != nil {
		return nil, err
	}
	return domain.NewIdentity(identityID, username), nil
}

func (r *PgIdentityRepository) SaveSyncResult(ctx context.Context, identityID int64, active bool, groupIDs []int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE identities SET is_active = $2 WHERE id = $1`,
		identityID, active,
	); err != nil {
		return err
	}

	// Reemplazo total de membresia: lo que no esta en el set nuevo se va.
	if _, err := tx.Exec(ctx,
		`DELETE FROM identity_groups WHERE identity_id = $1`,
		identityID,
	); err != nil {
		return err
	}
	for _, groupID := range groupIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO identity_groups (identity_id, group_id) VALUES ($1, $2)`,
			identityID, groupID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
