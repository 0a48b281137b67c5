package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tavoloai/tavolo-web/internal/auth/local"
	"github.com/tavoloai/tavolo-web/internal/auth/supabase"
	"github.com/tavoloai/tavolo-web/internal/config"
	"github.com/tavoloai/tavolo-web/internal/domain"
	"github.com/tavoloai/tavolo-web/internal/handler"
	"github.com/tavoloai/tavolo-web/internal/i18n"
	"github.com/tavoloai/tavolo-web/internal/platform/otel"
	"github.com/tavoloai/tavolo-web/internal/repository/postgres"
	"github.com/tavoloai/tavolo-web/internal/repository/sqlite"
	"github.com/tavoloai/tavolo-web/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "tavolo-web", cfg.OTelEnabled, cfg.OTelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	bundle, err := i18n.New(cfg.DefaultLanguage)
	if err != nil {
		slog.Error("failed to load dictionaries", "error", err)
		os.Exit(1)
	}
	for lang, keys := range bundle.MissingKeys() {
		slog.Warn("dictionary keys missing", "language", lang, "keys", keys)
	}

	var stores []domain.Store
	defer func() {
		for _, s := range stores {
			if err := s.Close(); err != nil {
				slog.Error("close database", "error", err)
			}
		}
	}()

	provider, authDB, err := newAuthProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up auth provider", "error", err)
		os.Exit(1)
	}
	if authDB != nil {
		stores = append(stores, authDB)
	}

	db, err := postgres.Open(ctx, cfg.Supabase.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	stores = append(stores, db)
	if !db.Configured() {
		slog.Info("SUPABASE_DB_URL not set, database helper disabled")
	}

	authService := service.NewAuthService(provider, nil, cfg.BaseURL)
	limiter := service.NewRateLimiter(cfg.RateLimitPerMinute)
	defer limiter.Stop()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Auth:         authService,
		Dashboard:    service.NewDashboardService(),
		Limiter:      limiter,
		DB:           db,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(handler.Language(bundle, mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "auth_provider", cfg.AuthProvider, "default_language", bundle.Fallback(), "languages", bundle.Languages())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// newAuthProvider builds the configured provider and the store it owns, if
// any. A missing Supabase project is not fatal: the provider is nil and
// requests report the misconfiguration.
func newAuthProvider(ctx context.Context, cfg *config.Config) (domain.AuthProvider, domain.MigratingStore, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderLocal:
		db, err := sqlite.New(cfg.Local.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("database migrations applied", "path", cfg.Local.DatabasePath)
		provider := local.New(db.Users(), db.Sessions(), cfg.Local.JWTSecret, cfg.Local.BcryptCost)
		return provider, db, nil

	default:
		sb := cfg.Supabase
		anonKey := sb.AnonKey
		if anonKey == "" {
			anonKey = sb.ServiceRoleKey
		}
		client, err := supabase.New(supabase.Config{
			URL:            sb.URL,
			AnonKey:        anonKey,
			ServiceRoleKey: sb.ServiceRoleKey,
			JWTSecret:      sb.JWTSecret,
		})
		if errors.Is(err, domain.ErrNotConfigured) {
			slog.Warn("Supabase is not configured; authentication requests will fail",
				"need", "SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
		if !sb.Configured() {
			slog.Warn("SUPABASE_ANON_KEY not set; using the service role key for public endpoints")
		}
		if !sb.AdminConfigured() {
			slog.Warn("SUPABASE_SERVICE_ROLE_KEY not set; /api/register will fail")
		}
		return client, nil, nil
	}
}
