package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"timecard/internal/cache"
	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/middleware/ratelimit"
	"timecard/internal/middleware/security"
	"timecard/internal/middleware/trace"
	"timecard/internal/services"
)

type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Caches are swept in the background while the server runs.
	Caches *cache.Manager
	// TrustedProxies extends the private ranges trusted for X-Forwarded-For.
	TrustedProxies []string
}

type Server struct {
	http.Server
	tracker   *services.Tracker
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	caches    *cache.Manager
	formatter core.Formatter

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware around tracker.
func NewServer(addr string, tracker *services.Tracker, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	clientIP := security.NewClientIP()
	for _, cidr := range opts.TrustedProxies {
		if err := clientIP.AddTrustedProxy(cidr); err != nil {
			opts.Logger.WithComponent(log.ComponentSecurity).Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	s := &Server{
		tracker:   tracker,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		caches:    opts.Caches,
		formatter: core.NewFormatter(tracker.Locale().Tag, tracker.Currency()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/activities", s.handleListActivities)
	mux.HandleFunc("POST /api/activities", s.handleCreateActivity)
	mux.HandleFunc("PATCH /api/activities/{id}", s.handleUpdateActivity)
	mux.HandleFunc("DELETE /api/activities/{id}", s.handleDeleteActivity)
	mux.HandleFunc("PUT /api/activities/{id}/active", s.handleSetActivityActive)

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateManualSession)
	mux.HandleFunc("GET /api/sessions/active", s.handleActiveSession)
	mux.HandleFunc("POST /api/sessions/start", s.handleStartSession)
	mux.HandleFunc("POST /api/sessions/{id}/stop", s.handleStopSession)
	mux.HandleFunc("PUT /api/sessions/{id}", s.handleUpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/paid", s.handleSetSessionPaid)

	mux.HandleFunc("GET /api/months", s.handleRecentMonths)
	mux.HandleFunc("GET /api/months/{month}", s.handleMonth)
	mux.HandleFunc("PUT /api/months/{month}/paid", s.handleSetMonthPaid)
	mux.HandleFunc("GET /api/months/{month}/export.csv", s.handleExportCSV)

	mux.HandleFunc("GET /api/todos", s.handleListTodos)
	mux.HandleFunc("POST /api/todos", s.handleCreateTodo)
	mux.HandleFunc("POST /api/todos/{id}/toggle", s.handleToggleTodo)
	mux.HandleFunc("DELETE /api/todos/{id}", s.handleDeleteTodo)

	var h http.Handler = mux
	h = s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(logger)(h)
	h = trace.NewMiddleware(clientIP.Extract, logger).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully. The rate
// limiter and cache sweepers run alongside.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.limiter.Run(gctx) })
	if s.caches != nil {
		g.Go(func() error { return s.caches.Run(gctx, 10*time.Minute) })
	}
	g.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Ready(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
