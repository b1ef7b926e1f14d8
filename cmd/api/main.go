package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"dubclub-auth/internal/cache"
	"dubclub-auth/internal/config"
	"dubclub-auth/internal/db"
	apihttp "dubclub-auth/internal/http"
	"dubclub-auth/internal/provider"
	"dubclub-auth/internal/repository"
	"dubclub-auth/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	identityRepo := repository.NewPgIdentityRepository(pool)
	groupRepo := repository.NewPgGroupRepository(pool)
	tokenRepo := repository.NewPgTokenRepository(pool)
	appRepo := repository.NewPgSocialAppRepository(pool)

	var (
		stateStore   service.StateStore
		loginLimiter service.LoginRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			stateStore = service.NewRedisStateStore(redisClient, cfg.OAuthStateTTL)
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateMax)
		}
		cancel()
	}
	if stateStore == nil {
		stateStore = service.NewMemoryStateStore(cfg.OAuthStateTTL)
	}
	if loginLimiter == nil {
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginRateWindow, cfg.LoginRateMax)
	}

	oauthAdapter := provider.NewOAuthAdapter(provider.OAuthConfig{
		Provider:    cfg.OAuthProvider,
		ClientID:    cfg.OAuthClientID,
		Secret:      cfg.OAuthSecret,
		AuthURL:     cfg.OAuthAuthURL,
		TokenURL:    cfg.OAuthTokenURL,
		RedirectURL: cfg.OAuthRedirectURL,
	}, appRepo)
	fetcher := provider.NewHTTPClient(cfg.OAuthProfileURL, cfg.ProfileFetchTimeout)

	groupSvc := service.NewGroupService(logger, groupRepo)
	profileSvc := service.NewProfileService(logger, tokenRepo, fetcher, groupSvc, identityRepo)
	loginSvc := service.NewLoginService(logger, identityRepo, tokenRepo)
	sessionSvc := service.NewSessionService(cfg.SessionSecret, cfg.SessionTTL)
	identityCache := cache.NewIdentityCache()

	authHandler := apihttp.NewAuthHandler(logger, oauthAdapter, fetcher, stateStore, loginSvc, sessionSvc, loginLimiter)
	identityHandler := apihttp.NewIdentityHandler(logger, groupRepo)
	identityMW := apihttp.IdentityMiddleware(logger, sessionSvc, identityRepo, identityCache, profileSvc)
	router := apihttp.NewRouter(logger, authHandler, identityHandler, identityMW)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
