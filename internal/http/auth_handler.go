package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"dubclub-auth/internal/domain"
	"dubclub-auth/internal/provider"
	"dubclub-auth/internal/service"
)

// OAuthExchanger es lo que el handler necesita del adapter OAuth.
type OAuthExchanger interface {
	AuthCodeURL(ctx context.Context, state string) (string, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// AuthHandler mantiene dependencias para el flujo de login contra DubClub.
type AuthHandler struct {
	logger   *zap.Logger
	oauth    OAuthExchanger
	fetcher  provider.ProfileFetcher
	states   service.StateStore
	login    *service.LoginService
	sessions *service.SessionService
	limiter  service.LoginRateLimiter
}

func NewAuthHandler(
	logger *zap.Logger,
	oauth OAuthExchanger,
	fetcher provider.ProfileFetcher,
	states service.StateStore,
	login *service.LoginService,
	sessions *service.SessionService,
	limiter service.LoginRateLimiter,
) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		oauth:    oauth,
		fetcher:  fetcher,
		states:   states,
		login:    login,
		sessions: sessions,
		limiter:  limiter,
	}
}

// Login maneja GET /auth/login: crea un state de un solo uso y redirige
// al provider.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	state, err := h.states.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("state create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start login"})
		return
	}

	url, err := h.oauth.AuthCodeURL(c.Request.Context(), state)
	if err != nil {
		h.logger.Error("auth url build failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start login"})
		return
	}

	c.Redirect(http.StatusFound, url)
}

// Callback maneja GET /auth/callback: valida el state, intercambia el
// code, deriva la identidad desde el userinfo y emite la sesion.
func (h *AuthHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing state or code"})
		return
	}

	ok, err := h.states.Consume(c.Request.Context(), state)
	if err != nil {
		h.logger.Error("state consume failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete login"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	token, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not complete login"})
		return
	}

	// Un unico fetch con el token fresco para obtener los claims crudos
	// que alimentan el hook de post-login.
	claims, err := h.fetcher.UserInfo(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("userinfo fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not complete login"})
		return
	}

	identity, err := h.login.CompleteLogin(c.Request.Context(), claims, domain.SocialToken{
		Token:     token.AccessToken,
		ExpiresAt: token.Expiry,
	})
	if err != nil {
		h.logger.Error("post-login hook failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete login"})
		return
	}

	session, expiresAt, err := h.sessions.Issue(identity.ID)
	if err != nil {
		h.logger.Error("session issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete login"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, session, int(time.Until(expiresAt).Seconds()), "/", "", true, true)

	c.JSON(http.StatusOK, gin.H{"status": "logged_in", "identity": identity.Username})
}
