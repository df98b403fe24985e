package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tracepay/internal/amqp"
	"tracepay/internal/cache"
	"tracepay/internal/core"
	applog "tracepay/internal/log"
	"tracepay/internal/logo"
	"tracepay/internal/metrics"
	"tracepay/internal/middleware/ratelimit"
	"tracepay/internal/middleware/security"
	"tracepay/internal/middleware/trace"
)

// AdminReader is the part of admin.Service the HTTP surface serves.
type AdminReader interface {
	Users(ctx context.Context, page core.PageRequest, force bool) (cache.Result[core.UsersPage], error)
	Regional(ctx context.Context, force bool) (cache.Result[[]core.RegionalStat], error)
	Overview(ctx context.Context, force bool) (cache.Result[core.OverviewStats], error)
	Temporal(ctx context.Context, days int) (core.TemporalStats, error)
	Forensic(ctx context.Context, limit int) ([]core.ForensicEntry, error)
}

// InvalidationPublisher fans cache clears out to other instances.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, msg *amqp.CacheInvalidationMessage) error
}

// Deps are the collaborators a Server needs. Admin and Publisher are
// optional; Metrics defaults to a fresh private registry.
type Deps struct {
	Logger             *applog.Logger
	Metrics            *metrics.Metrics
	Gate               *cache.Gate
	CacheTTL           time.Duration
	Admin              AdminReader
	Logos              map[logo.Kind]*logo.Resolver
	Publisher          InvalidationPublisher
	// InstanceID is stamped on published invalidations as their origin.
	InstanceID         string
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	logger    *applog.Logger
	access    *applog.StructuredLogger
	metrics   *metrics.Metrics
	gate      *cache.Gate
	cacheTTL  time.Duration
	admin     AdminReader
	logos     map[logo.Kind]*logo.Resolver
	publisher InvalidationPublisher
	instance  string

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	s := &Server{
		logger:    logger,
		access:    applog.NewStructuredLogger(logger),
		metrics:   m,
		gate:      deps.Gate,
		cacheTTL:  ttl,
		admin:     deps.Admin,
		logos:     deps.Logos,
		publisher: deps.Publisher,
		instance:  deps.InstanceID,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP, m.ObserveHTTP)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/logos/{kind}", s.handleLogo)
	apiMux.HandleFunc("GET /api/admin/users", s.handleUsers)
	apiMux.HandleFunc("GET /api/admin/regional", s.handleRegional)
	apiMux.HandleFunc("GET /api/admin/overview", s.handleOverview)
	apiMux.HandleFunc("GET /api/admin/temporal", s.handleTemporal)
	apiMux.HandleFunc("GET /api/admin/forensic", s.handleForensic)
	apiMux.HandleFunc("GET /api/cache", s.handleCacheKeys)
	apiMux.HandleFunc("GET /api/cache/{key}/age", s.handleCacheAge)
	apiMux.HandleFunc("DELETE /api/cache/{key}", s.handleCacheClear)
	apiMux.HandleFunc("DELETE /api/cache", s.handleCacheClearAll)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("/api/", s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(apiMux))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(
		s.detector.Middleware(s.onSuspicious)(
			headers.Middleware(mux)))
	s.Addr = addr
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 40 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16

	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.metrics.SecurityEvent("rate_limited")
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

func (s *Server) onSuspicious(r *http.Request, reason string) {
	s.metrics.SecurityEvent("suspicious")
	applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
		"reason", reason,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
}
