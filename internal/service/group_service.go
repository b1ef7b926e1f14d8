package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dubclub-auth/internal/domain"
	"dubclub-auth/internal/repository"
)

// GroupService resuelve tags remotos a grupos de autorizacion locales.
type GroupService struct {
	logger *zap.Logger
	groups repository.GroupRepository
}

func NewGroupService(logger *zap.Logger, groups repository.GroupRepository) *GroupService {
	return &GroupService{logger: logger, groups: groups}
}

// Resolve mapea cada tag al grupo local con nombre prefijado. Un tag sin
// grupo correspondiente se loguea como warning y se saltea: el
// aprovisionamiento de grupos es una accion administrativa, nunca se
// auto-crean. Tags duplicados colapsan a un solo grupo.
func (s *GroupService) Resolve(ctx context.Context, tags []string) ([]domain.Group, error) {
	seen := make(map[int64]struct{}, len(tags))
	resolved := make([]domain.Group, 0, len(tags))
	for _, tag := range tags {
		name := domain.TagGroupName(tag)
		group, err := s.groups.GetByName(ctx, name)
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("could not find group for tag",
				zap.String("group", name),
				zap.String("tag", tag),
			)
			continue
		}
		if err != nil {
			// Falla de storage, no un tag sin aprovisionar: abortar en
			// vez de reconciliar con un set incompleto.
			return nil, err
		}
		if _, dup := seen[group.ID]; dup {
			continue
		}
		seen[group.ID] = struct{}{}
		resolved = append(resolved, group)
	}
	return resolved, nil
}
