// Package server wires storage, the authentication services and the HTTP
// layer into a runnable API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/cleanup"
	"github.com/iudanet/authkeeper/internal/server/handlers"
	"github.com/iudanet/authkeeper/internal/server/metrics"
	"github.com/iudanet/authkeeper/internal/server/middleware"
	"github.com/iudanet/authkeeper/internal/server/notify"
	"github.com/iudanet/authkeeper/internal/server/session"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Options - зависимости сервера
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    storage.Storage
	Notifier notify.Notifier      // nil - LogNotifier на logger
	Hasher   crypto.PasswordHasher // nil - bcrypt с cost по умолчанию
	Registry *prometheus.Registry // nil - новый реестр
}

// Server - собранный API сервер
type Server struct {
	logger   *slog.Logger
	authn    *auth.Authenticator
	resets   *auth.ResetManager
	handler  http.Handler
	cfg      *config.Config
	registry *prometheus.Registry
}

// New собирает сервисы и роутер. Сервер не слушает порт до Serve.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("storage is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := opts.Registry
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	m := metrics.New(registry)

	hasher := opts.Hasher
	if hasher == nil {
		hasher = crypto.NewBcryptHasher(0)
	}

	notifier := opts.Notifier
	if notifier == nil {
		n, err := notify.NewLogNotifier(logger.With(slog.String("component", "outbox")), opts.Config.Reset.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create notifier: %w", err)
		}
		notifier = n
	}

	issuer, err := session.NewIssuer([]byte(opts.Config.JWT.Secret), opts.Config.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session issuer: %w", err)
	}

	authn, err := auth.NewAuthenticator(logger, opts.Store, hasher, issuer, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	resets, err := auth.NewResetManager(logger, opts.Store, opts.Store, hasher, notifier, opts.Config.Reset.TTL, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create reset manager: %w", err)
	}

	s := &Server{
		logger:   logger,
		authn:    authn,
		resets:   resets,
		cfg:      opts.Config,
		registry: registry,
	}
	s.handler = s.routes(opts.Store, m)

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ResetManager exposes the reset manager for one-shot maintenance commands.
func (s *Server) ResetManager() *auth.ResetManager {
	return s.resets
}

func (s *Server) routes(store storage.Storage, m *metrics.Metrics) http.Handler {
	authHandler := handlers.NewAuthHandler(s.logger, s.authn)
	resetHandler := handlers.NewResetHandler(s.logger, s.resets)
	healthHandler := handlers.NewHealthHandler(s.logger, store)
	requireSession := middleware.AuthMiddleware(s.logger, s.authn)

	mux := http.NewServeMux()

	// Публичные маршруты
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/forgot-password", resetHandler.ForgotPassword)
	mux.HandleFunc("GET /api/auth/verify-reset-token/{token}", resetHandler.VerifyResetToken)
	mux.HandleFunc("POST /api/auth/reset-password", resetHandler.ResetPassword)
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.Handle("GET /metrics", metrics.Handler(s.registry))

	// Защищенные маршруты
	mux.Handle("GET /api/auth/verify", requireSession(http.HandlerFunc(authHandler.Verify)))
	mux.Handle("GET /api/protected", requireSession(http.HandlerFunc(authHandler.Protected)))

	var h http.Handler = mux
	h = middleware.RecoveryMiddleware(s.logger)(h)
	h = middleware.LoggingWithSkip(s.logger, m, []string{"/api/health", "/metrics"})(h)
	h = cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(h)

	return h
}

// Run слушает cfg.HTTP.Addr до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.HTTP.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx, затем плавно завершается.
// Сборщик токенов работает, пока работает сервер.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	var sweeper *cleanup.Sweeper
	if s.cfg.Cleanup.Interval > 0 {
		sweeper = cleanup.NewSweeper(s.logger, s.resets, s.cfg.Cleanup.Interval)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info("Server started", slog.String("addr", ln.Addr().String()))

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}
