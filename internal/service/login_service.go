package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"dubclub-auth/internal/domain"
	"dubclub-auth/internal/repository"
)

var ErrClaimsInvalid = errors.New("oauth claims invalid")

// LoginService implementa el hook de post-login: deriva la identidad
// canonica desde los claims crudos y persiste registro y token, sin tocar
// jamas una password local.
type LoginService struct {
	logger     *zap.Logger
	identities repository.IdentityRepository
	tokens     repository.TokenRepository
}

func NewLoginService(logger *zap.Logger, identities repository.IdentityRepository, tokens repository.TokenRepository) *LoginService {
	return &LoginService{logger: logger, identities: identities, tokens: tokens}
}

// CompleteLogin corre una vez por intercambio de authorization code
// exitoso. El id es el subject claim como entero y el username es el
// prefijo fijo mas el subject; nada mas se setea en la identidad.
func (s *LoginService) CompleteLogin(ctx context.Context, claims domain.Profile, token domain.SocialToken) (*domain.Identity, error) {
	sub, err := claims.Sub()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	}

	identity := domain.NewIdentity(sub, domain.UsernamePrefix+strconv.FormatInt(sub, 10))

	// Poblado generico estilo framework: cada claim se ofrece al registro
	// sombra, que suprime todo campo propiedad del provider. La llamada no
	// falla; solo queda constancia a nivel debug.
	for name, value := range claims {
		if !identity.SetField(name, value) {
			s.logger.Debug("prevented setting field",
				zap.String("field", name),
				zap.Int64("identity_id", identity.ID),
			)
		}
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	token.IdentityID = identity.ID
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	return identity, nil
}
