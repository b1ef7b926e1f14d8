package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dubclub-auth/internal/cache"
	"dubclub-auth/internal/domain"
	"dubclub-auth/internal/repository"
	"dubclub-auth/internal/service"
)

// SessionCookieName es la cookie que transporta el token de sesion.
const SessionCookieName = "dc_session"

const identityKey = "current_identity"

// ProfileLoader es lo unico que el middleware necesita del servicio de
// perfil.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, identity *domain.Identity, force bool) (domain.Profile, error)
}

// IdentityMiddleware resuelve la identidad de la sesion y fuerza un sync
// bloqueante del perfil antes de que cualquier handler toque datos de
// identidad. Frescura por sobre latencia: es el costo mas caro por
// request (un round trip al provider).
func IdentityMiddleware(
	logger *zap.Logger,
	sessions *service.SessionService,
	identities repository.IdentityRepository,
	idCache *cache.IdentityCache,
	profiles ProfileLoader,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			c.Abort()
			return
		}

		identityID, err := sessions.Parse(cookie)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		identity, ok := idCache.Get(identityID)
		if !ok {
			identity, err = identities.GetByID(c.Request.Context(), identityID)
			if errors.Is(err, pgx.ErrNoRows) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
				c.Abort()
				return
			}
			if err != nil {
				logger.Error("identity lookup failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "identity lookup failed"})
				c.Abort()
				return
			}
			idCache.Put(identity)
		}

		if _, err := profiles.LoadProfile(c.Request.Context(), identity, true); err != nil {
			if errors.Is(err, service.ErrIdentityMismatch) {
				// Anomalia de seguridad: token atado a otra identidad.
				logger.Error("identity mismatch during sync",
					zap.Int64("identity_id", identity.ID),
					zap.Error(err),
				)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "identity mismatch"})
				c.Abort()
				return
			}
			// Falla de fetch: el request sigue con lo que hubiera en cache.
			logger.Warn("profile sync failed",
				zap.Stringer("identity", identity),
				zap.Error(err),
			)
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity obtiene la identidad de la sesion desde el contexto.
func CurrentIdentity(c *gin.Context) (*domain.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*domain.Identity)
	return identity, ok
}
