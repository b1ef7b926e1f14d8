package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dubclub-auth/internal/domain"
	"dubclub-auth/internal/provider"
	"dubclub-auth/internal/repository"
)

// ErrIdentityMismatch señala que el userinfo traido pertenece a otro
// subject que la identidad local: un token mal ruteado o reusado. Se
// propaga fuerte, nunca se absorbe.
var ErrIdentityMismatch = errors.New("userinfo sub does not match identity id")

// ProfileService orquesta el sync del perfil remoto: token, fetch,
// validacion de identidad, reconciliacion de grupos y proyeccion final
// a la cache del registro sombra.
type ProfileService struct {
	logger     *zap.Logger
	tokens     repository.TokenRepository
	fetcher    provider.ProfileFetcher
	groups     *GroupService
	identities repository.IdentityRepository
}

func NewProfileService(
	logger *zap.Logger,
	tokens repository.TokenRepository,
	fetcher provider.ProfileFetcher,
	groups *GroupService,
	identities repository.IdentityRepository,
) *ProfileService {
	return &ProfileService{
		logger:     logger,
		tokens:     tokens,
		fetcher:    fetcher,
		groups:     groups,
		identities: identities,
	}
}

// LoadProfile trae el userinfo de DubClub para la identidad dada.
//
// Sin token vigente devuelve (nil, nil): es un estado esperado para
// identidades con token expirado o revocado, no un error. Con force en
// false y cache ya poblada, devuelve la cache sin tocar la red. Cualquier
// corte (sin token, falla de fetch, mismatch) deja la cache previa
// intacta; nunca hay actualizacion parcial.
func (s *ProfileService) LoadProfile(ctx context.Context, identity *domain.Identity, force bool) (domain.Profile, error) {
	token, err := s.tokens.GetValidToken(ctx, identity.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("no valid token for identity", zap.Stringer("identity", identity))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}

	if identity.Loaded() && !force {
		return identity.Snapshot(), nil
	}

	profile, err := s.fetcher.UserInfo(ctx, token.Token)
	if err != nil {
		return nil, err
	}

	// Chequeo de seguridad: que no estemos trayendo el usuario equivocado.
	sub, err := profile.Sub()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityMismatch, err)
	}
	if sub != identity.ID {
		return nil, fmt.Errorf("%w: identity=%d sub=%d", ErrIdentityMismatch, identity.ID, sub)
	}

	groups, err := s.groups.Resolve(ctx, profile.Tags())
	if err != nil {
		return nil, fmt.Errorf("resolve groups: %w", err)
	}
	groupIDs := make([]int64, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	// is_active es el unico campo que vuelve a storage durable: los
	// chequeos de autorizacion rio abajo lo necesitan mas alla de la vida
	// de la cache. Membresia y flag van en un solo commit.
	if err := s.identities.SaveSyncResult(ctx, identity.ID, profile.IsActive(), groupIDs); err != nil {
		return nil, fmt.Errorf("save sync result: %w", err)
	}

	identity.ReplaceProfile(profile)
	return profile, nil
}
