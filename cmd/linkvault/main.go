package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanfernandez-eng/linkvault/internal/config"
	"github.com/bryanfernandez-eng/linkvault/internal/metadata"
	"github.com/bryanfernandez-eng/linkvault/internal/oauth"
	"github.com/bryanfernandez-eng/linkvault/internal/otc"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/middleware"
	"github.com/bryanfernandez-eng/linkvault/internal/pkg/router"
	"github.com/bryanfernandez-eng/linkvault/internal/provider"
	"github.com/bryanfernandez-eng/linkvault/internal/rest"
	"github.com/bryanfernandez-eng/linkvault/internal/service"
	"github.com/bryanfernandez-eng/linkvault/internal/store"
	"github.com/bryanfernandez-eng/linkvault/internal/token"
)

func run(ctx context.Context) error {
	slog.Info("starting linkvault")

	cfg := config.FromEnv()
	db, err := store.NewPostgresDB(store.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DB:       cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer db.Close()

	pgs := store.NewPostgresStore(db)

	auth := oauth.NewAuthenticator()
	if err := registerProviders(ctx, auth, cfg); err != nil {
		return fmt.Errorf("failed to register oauth providers: %w", err)
	}

	codes := otc.NewRedis(otc.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.CodeTTL,
	})
	defer codes.Close()

	fetcher, err := metadata.NewFetcher(metadata.FetcherConfig{
		Timeout:  cfg.Metadata.FetchTimeout,
		CacheTTL: cfg.Metadata.CacheTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata fetcher: %w", err)
	}
	defer fetcher.Close()

	authSrv := service.NewAuth(
		service.WithAuthenticator(auth),
		service.WithStore(pgs),
		service.WithAccessToken(token.NewJWTIssuer(token.JwtConfig{
			Secret: token.NewSecretString(cfg.JWT.AccessSecret),
			Issuer: cfg.JWT.Issuer,
			TTL:    cfg.JWT.AccessTTL,
		})),
		service.WithRefreshToken(token.NewJWTIssuer(token.JwtConfig{
			Secret: token.NewSecretString(cfg.JWT.RefreshSecret),
			Issuer: cfg.JWT.Issuer,
			TTL:    cfg.JWT.RefreshTTL,
		})),
		service.WithOTC(codes),
	)

	sectionsSrv := service.NewSections(pgs)
	linksSrv := service.NewLinks(pgs, sectionsSrv, fetcher)

	rt := router.New()
	rt.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rt.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := codes.Ping(r.Context()); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	authRoutes := rt.SubRouter("/api/v1/auth")
	authRoutes.Use(middleware.Log(), middleware.Recover())
	authRoutes.Handle("/", rest.NewAuthAPI(authSrv))

	vaultRoutes := rt.SubRouter("/api/v1")
	vaultRoutes.Use(middleware.Log(), middleware.Recover(), middleware.Auth([]byte(cfg.JWT.AccessSecret)))
	vaultRoutes.Handle("/", rest.NewVaultAPI(authSrv, sectionsSrv, linksSrv))

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Handler:      rt,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func registerProviders(ctx context.Context, auth *oauth.Authenticator, cfg config.Config) error {
	if cfg.Google.ClientID == "" {
		slog.Warn("google oauth is not configured, skipping provider registration")
		return nil
	}

	prvGoogle, err := provider.NewGoogle(ctx, provider.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create google oauth provider: %w", err)
	}

	return auth.Use("google", prvGoogle)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("linkvault terminated with error", "error", err)
		os.Exit(1)
	}
}
