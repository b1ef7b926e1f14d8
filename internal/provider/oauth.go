package provider

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"dubclub-auth/internal/repository"
)

// OAuthConfig agrupa los parametros estaticos del provider.
type OAuthConfig struct {
	Provider    string
	ClientID    string
	Secret      string
	AuthURL     string
	TokenURL    string
	RedirectURL string
}

// OAuthAdapter arma URLs de autorizacion e intercambia codes contra
// DubClub. Registra la SocialApp en el primer uso, no al arrancar, para
// no depender del orden de carga de configuracion.
type OAuthAdapter struct {
	cfg  OAuthConfig
	apps repository.SocialAppRepository

	mu       sync.Mutex
	oauthCfg *oauth2.Config
}

func NewOAuthAdapter(cfg OAuthConfig, apps repository.SocialAppRepository) *OAuthAdapter {
	return &OAuthAdapter{cfg: cfg, apps: apps}
}

// config resuelve la configuracion oauth2 con las credenciales ya
// registradas (get-or-create idempotente).
func (a *OAuthAdapter) config(ctx context.Context) (*oauth2.Config, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.oauthCfg != nil {
		return a.oauthCfg, nil
	}

	app, err := a.apps.GetOrCreate(ctx, a.cfg.Provider, a.cfg.ClientID, a.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("register provider app: %w", err)
	}

	a.oauthCfg = &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.Secret,
		RedirectURL:  a.cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.cfg.AuthURL,
			TokenURL: a.cfg.TokenURL,
		},
	}
	return a.oauthCfg, nil
}

// AuthCodeURL construye la URL de autorizacion con el state dado.
func (a *OAuthAdapter) AuthCodeURL(ctx context.Context, state string) (string, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange intercambia el authorization code por un token del provider.
func (a *OAuthAdapter) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return nil, err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}
