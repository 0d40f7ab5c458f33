package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/service"
)

// Server is the HTTP front end of the pi calculator. It wraps an
// http.Server with the calculation service, the middleware chain and
// graceful shutdown.
type Server struct {
	factory        chudnovsky.CalculatorFactory
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
	cacheSize      int
}

// NewServer creates a server for the calculators of factory.
//
// Parameters:
//   - factory: The calculator factory to retrieve implementations from.
//   - cfg: The application configuration (port and calculation defaults).
//   - opts: Optional functional options (WithLogger, WithService, ...).
//
// Returns:
//   - *Server: The initialized server.
//   - error: An error if the calculation service cannot be created.
func NewServer(factory chudnovsky.CalculatorFactory, cfg config.AppConfig, opts ...Option) (*Server, error) {
	s := &Server{
		factory:        factory,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
		cacheSize:      service.DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		svc, err := service.NewCalculatorService(s.factory, s.cfg, s.securityConfig.MaxDigits, s.cacheSize)
		if err != nil {
			return nil, err
		}
		s.service = svc
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/pi", s.wrapWithMiddleware(s.handlePi))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/algorithms", s.wrapWithMiddleware(s.handleAlgorithms))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s, nil
}

// wrapWithMiddleware applies Security -> RateLimit -> Logging -> Metrics.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	return SecurityMiddleware(s.securityConfig, wrapped)
}

// Handler returns the server's routed handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured port and serves until ctx is done, then
// shuts down gracefully within the shutdown timeout.
//
// Returns:
//   - error: A ServerError if listening fails or shutdown times out.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server",
		logging.String("addr", ln.Addr().String()),
		logging.Uint64("max_digits", s.securityConfig.MaxDigits),
		logging.String("algo", s.cfg.Algo),
		logging.String("schedule", s.cfg.Schedule),
		logging.Int("workers", s.cfg.Threads),
	)
	s.logger.Info("endpoints: GET /pi?digits=<n>&schedule=<s>&chunk=<c>&workers=<w>&format=<bool>, /health, /algorithms, /metrics")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested, draining connections")
	case err := <-errCh:
		return apperrors.NewServerError("server failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
