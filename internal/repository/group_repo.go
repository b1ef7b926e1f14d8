package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"dubclub-auth/internal/domain"
)

// GroupRepository define lecturas sobre grupos de autorizacion. Los grupos
// se crean fuera de este servicio; aca solo se resuelven por nombre.
type GroupRepository interface {
	GetByName(ctx context.Context, name string) (domain.Group, error)
	ListForIdentity(ctx context.Context, identityID int64) ([]domain.Group, error)
}

// PgGroupRepository implementa GroupRepository usando pgxpool.
type PgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupRepository(pool *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{pool: pool}
}

func (r *PgGroupRepository) GetByName(ctx context.Context, name string) (domain.Group, error) {
	const query = `
		SELECT id, name
		FROM auth_groups
		WHERE name = $1
	`
	var g domain.Group
	err := r.pool.QueryRow(ctx, query, name).Scan(&g.ID, &g.Name)
	if err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (r *PgGroupRepository) ListForIdentity(ctx context.Context, identityID int64) ([]domain.Group, error) {
	const query = `
		SELECT g.id, g.name
		FROM auth_groups g
		JOIN identity_groups ig ON ig.group_id = g.id
		WHERE ig.identity_id = $1
		ORDER BY g.name
	`
	rows, err := r.pool.Query(ctx, query, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
