// Package server is the composition root: it builds every component from
// the config, mounts the routes and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config → store (memory | sqlite)
//	       → aggregator (reads the store)
//	       → completer (openai | gemini | disabled, optionally cached)
//	       → orchestrator (aggregator + completer + recorder)
//	       → services → handlers → routes
//
// Each layer only receives what it needs. Handlers never see the store and
// services never see HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/auth"
	"github.com/sakif/social-pulse/internal/config"
	"github.com/sakif/social-pulse/internal/handler"
	"github.com/sakif/social-pulse/internal/insights"
	"github.com/sakif/social-pulse/internal/llm"
	"github.com/sakif/social-pulse/internal/middleware"
	"github.com/sakif/social-pulse/internal/repository"
	"github.com/sakif/social-pulse/internal/repository/memory"
	"github.com/sakif/social-pulse/internal/repository/sqlite"
	"github.com/sakif/social-pulse/internal/seed"
	"github.com/sakif/social-pulse/internal/service"
)

// Server owns the store and the completion cache; both are released by
// Close.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *chi.Mux
	store  repository.Store
	cache  *llm.CachedCompleter // nil when caching is off
	now    func() time.Time

	completerOverride llm.Completer
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source handed to the store, the aggregator
// and the seed loader.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithCompleter replaces the configured provider. Tests use it to run
// without network access.
func WithCompleter(c llm.Completer) Option {
	return func(s *Server) { s.completerOverride = c }
}

// New builds the server. When seeding is enabled the demo workspace is
// loaded before New returns.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger, router: chi.NewRouter(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	s.store = store

	if err := s.setup(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) openStore() (repository.Store, error) {
	switch s.cfg.Store.Driver {
	case "sqlite":
		path := s.cfg.Store.Path
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("server: creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(path, sqlite.WithClock(s.now))
		if err != nil {
			return nil, fmt.Errorf("server: opening sqlite store: %w", err)
		}
		return db, nil
	default:
		return memory.New(memory.WithClock(s.now)), nil
	}
}

// newCompleter picks the provider named by ai.provider. A provider that
// cannot be built (typically a missing key) degrades to llm.Disabled, so
// every AI endpoint serves its fallback instead of the server refusing to
// start.
func (s *Server) newCompleter(ctx context.Context) llm.Completer {
	ai := s.cfg.AI
	var (
		c   llm.Completer
		err error
	)
	switch ai.Provider {
	case "openai":
		c, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  ai.OpenAIKey,
			BaseURL: ai.OpenAIURL,
			Model:   ai.OpenAIModel,
			Timeout: ai.Timeout,
		})
	case "gemini":
		c, err = llm.NewGeminiClient(ctx, ai.GeminiKey, ai.GeminiModel)
	default:
		s.logger.Info("ai provider disabled")
		return llm.Disabled{}
	}
	if err != nil {
		s.logger.Warn("ai provider unavailable, serving fallbacks",
			slog.String("provider", ai.Provider),
			slog.String("error", err.Error()),
		)
		return llm.Disabled{}
	}
	s.logger.Info("ai provider ready", slog.String("provider", ai.Provider))
	return c
}

func (s *Server) setup(ctx context.Context) error {
	cfg := s.cfg

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.Auth.PasswordCost)

	agg := analytics.New(s.store, analytics.WithClock(s.now), analytics.WithSeed(cfg.Analytics.Seed))

	completer := s.completerOverride
	if completer == nil {
		completer = s.newCompleter(ctx)
	}
	if cfg.Cache.Enabled {
		cached, err := llm.NewCachedCompleter(completer, llm.CacheConfig{
			MaxCostBytes: cfg.Cache.MaxSizeMB << 20,
			NumCounters:  cfg.Cache.CounterSize,
			TTL:          cfg.Cache.TTL,
		})
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		s.cache = cached
		completer = cached
	}
	orch := insights.New(s.store, agg, completer, insights.NewRecorder(s.store), s.logger,
		insights.WithTimeout(cfg.AI.Timeout))

	defaults, err := seed.DefaultLayout()
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if cfg.Seed.Enabled {
		user, err := seed.Load(ctx, s.store, passwords, cfg.Seed.Password, seed.WithClock(s.now))
		if err != nil {
			return fmt.Errorf("server: seeding: %w", err)
		}
		s.logger.Info("demo workspace ready", slog.String("email", user.Email))
	}

	var github *auth.GitHubProvider
	if cfg.Auth.GitHub.Enabled() {
		github = auth.NewGitHubProvider(cfg.Auth.GitHub.ClientID, cfg.Auth.GitHub.ClientSecret, cfg.Auth.GitHub.CallbackURL)
	}

	authSvc := service.NewAuthService(s.store, tokens, passwords, s.logger)
	authH := handler.NewAuthHandler(authSvc, github, tokens.TTL(), cfg.Server.SecureCookies, s.logger)
	accountH := handler.NewAccountHandler(service.NewAccountService(s.store, s.logger), s.logger)
	analyticsH := handler.NewAnalyticsHandler(agg, s.logger)
	contentH := handler.NewContentHandler(service.NewContentService(s.store, agg, s.logger), orch, s.logger)
	dashH := handler.NewDashboardHandler(
		service.NewDashboardService(agg, s.logger),
		service.NewLayoutService(s.store, defaults, s.logger),
		s.logger,
	)
	aiH := handler.NewAIHandler(orch, agg, s.logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// === Global middleware, outermost first ===
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(s.logger))

	// === Public ===
	r.Get("/api/health", handler.HandleHealth)
	r.Post("/api/auth/register", authH.HandleRegister)
	r.Post("/api/auth/login", authH.HandleLogin)
	r.Post("/api/auth/logout", authH.HandleLogout)
	if cfg.Auth.ClientSocialLogin {
		s.logger.Warn("client-asserted social login is enabled")
		r.Post("/api/auth/social", authH.HandleSocial)
	}
	if github != nil {
		r.Get("/auth/github/login", authH.HandleGitHubLogin)
		r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	}

	// === Authenticated ===
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/api/auth/me", authH.HandleMe)

		r.Route("/api/accounts", func(r chi.Router) {
			r.Get("/", accountH.HandleList)
			r.Post("/connect", accountH.HandleConnect)
			r.Post("/{id}/disconnect", accountH.HandleDisconnect)
			r.Post("/{id}/sync", accountH.HandleSync)
			r.Get("/{id}/statistics", accountH.HandleStatistics)
		})

		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/summary", analyticsH.HandleSummary())
			r.Get("/performance", analyticsH.HandlePerformance())
			r.Get("/heatmap", analyticsH.HandleHeatmap())
			r.Get("/audience", analyticsH.HandleAudience())
			r.Get("/competitors", analyticsH.HandleCompetitors())
			r.Get("/{metric}", analyticsH.HandleMetric())
		})

		r.Route("/api/content", func(r chi.Router) {
			r.Get("/", contentH.HandleList)
			r.Get("/count", contentH.HandleCount)
			r.Get("/top-performing", contentH.HandleTop)
			r.Get("/tags/{tag}", contentH.HandleByTag)
			r.Get("/{id}", contentH.HandleGet)
			r.Patch("/{id}/bookmark", contentH.HandleToggleBookmark)
			r.With(limiter.Limit).Post("/{id}/auto-tag", contentH.HandleAutoTag)
		})

		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/overview", dashH.HandleOverview)
			r.Get("/layouts", dashH.HandleListLayouts)
			r.Post("/layouts", dashH.HandleCreateLayout)
			r.Put("/layouts/{id}", dashH.HandleUpdateLayout)
			r.Delete("/layouts/{id}", dashH.HandleDeleteLayout)
		})

		r.Route("/api/ai", func(r chi.Router) {
			r.Use(limiter.Limit)
			r.Get("/insights", aiH.HandleInsights)
			r.Get("/insights/history", aiH.HandleHistory)
			r.Post("/query", aiH.HandleQuery)
			r.Get("/recommendations", aiH.HandleRecommendations)
			r.Post("/competitors/analysis", aiH.HandleCompetitorAnalysis)
			r.Post("/content-gaps", aiH.HandleContentGaps)
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to server.shutdown_timeout.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests (bounded by the shutdown timeout)
//  3. Close the store and the cache
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	sc := s.cfg.Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", sc.Port),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", sc.Port),
			slog.String("store", s.cfg.Store.Driver),
			slog.String("ai_provider", s.cfg.AI.Provider),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// Close releases the store and the completion cache. It is safe to call
// more than once.
func (s *Server) Close() {
	if s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
		s.store = nil
	}
}
