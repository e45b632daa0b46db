// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"orcamento/internal/cache"
	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/middleware/ratelimit"
	"orcamento/internal/middleware/security"
	"orcamento/internal/middleware/trace"
	"orcamento/internal/services"
)

// Ledger is the part of the ledger service the API needs.
type Ledger interface {
	VersionedState() (int64, services.State)
	VersionedSummaries() (int64, []core.MonthSummary)
	Version() int64
	CreateMonth(ctx context.Context, name string) error
	DeleteMonth(ctx context.Context, month int) error
	SelectMonth(ctx context.Context, month int) error
	AddExpense(ctx context.Context, month int, description, amount string) error
	AddIncome(ctx context.Context, month int, source, amount string) error
	RemoveExpense(ctx context.Context, month, item int) error
	RemoveIncome(ctx context.Context, month, item int) error
	ToggleExpensePaid(ctx context.Context, month, item int) error
	Export() ([]byte, error)
	Import(ctx context.Context, text []byte) (int, error)
}

type Server struct {
	http.Server
	ledger   Ledger
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	// formatted summaries keyed by ledger version
	summaryCache *cache.LRU[int64, summariesResponse]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

type serverOptions struct {
	requestsPerMinute int
	trustedProxies    []string
}

type Option func(*serverOptions)

// WithRateLimit sets how many mutating requests a client may send per minute.
func WithRateLimit(perMinute int) Option {
	return func(o *serverOptions) { o.requestsPerMinute = perMinute }
}

// WithTrustedProxies adds networks allowed to set forwarding headers.
func WithTrustedProxies(cidrs ...string) Option {
	return func(o *serverOptions) { o.trustedProxies = append(o.trustedProxies, cidrs...) }
}

func NewServer(addr string, ledger Ledger, logger *applog.Logger, opts ...Option) *Server {
	o := serverOptions{requestsPerMinute: 60}
	for _, opt := range opts {
		opt(&o)
	}

	logger = logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector()
	for _, cidr := range o.trustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		ledger:       ledger,
		logger:       logger,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.requestsPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(logger, detector.ExtractClientIP),
		summaryCache: cache.NewLRU[int64, summariesResponse](8, 10*time.Minute),
		caches:       cache.NewManager(logger.Logger),
	}
	s.caches.Register(s.summaryCache)
	s.caches.StartCleanup(5 * time.Minute)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/summaries", s.handleSummaries)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	mux.HandleFunc("POST /api/months", s.handleCreateMonth)
	mux.HandleFunc("DELETE /api/months/{month}", s.handleDeleteMonth)
	mux.HandleFunc("POST /api/months/{month}/select", s.handleSelectMonth)

	mux.HandleFunc("POST /api/months/{month}/expenses", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/months/{month}/expenses/{item}", s.handleRemoveExpense)
	mux.HandleFunc("POST /api/months/{month}/expenses/{item}/toggle", s.handleToggleExpense)

	mux.HandleFunc("POST /api/months/{month}/incomes", s.handleAddIncome)
	mux.HandleFunc("DELETE /api/months/{month}/incomes/{item}", s.handleRemoveIncome)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost, http.MethodDelete)(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// Shutdown stops background routines and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()

		m := s.tracer.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			applog.FieldOperation, applog.OpShutdown,
			"total_requests", m.TotalRequests,
			"avg_response_us", m.AverageResponseTime,
			"rate_limit_hits", s.limiter.GetMetrics().TotalHits,
			"suspicious_requests", s.detector.GetMetrics().SuspiciousRequests)

		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
