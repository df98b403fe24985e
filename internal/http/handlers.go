package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"tracepay/internal/amqp"
	"tracepay/internal/core"
	applog "tracepay/internal/log"
	"tracepay/internal/logo"
)

const readyTimeout = 2 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the key-value store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := map[string]string{}
	status, code := "ready", http.StatusOK

	if s.gate == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if _, err := s.gate.Keys(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.admin == nil {
		checks["admin_api"] = "not_configured"
	} else {
		checks["admin_api"] = "configured"
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

type logoResponse struct {
	Kind  logo.Kind  `json:"kind"`
	Name  string     `json:"name"`
	Asset logo.Asset `json:"asset"`
}

// handleLogo resolves ?name= against the registry for {kind}.
func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	kind := logo.Kind(r.PathValue("kind"))
	resolver, ok := s.logos[kind]
	if !ok {
		NotFoundError("unknown logo kind: " + string(kind)).Write(w)
		return
	}
	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		BadRequestError("name is required").Write(w)
		return
	}

	asset, matched := resolver.Resolve(name)
	s.metrics.LogoLookup(string(kind), matched)
	s.access.LogLogoMatch(r.Context(), string(kind), name, string(asset))
	if !matched {
		NotFoundError("no logo for " + name).Write(w)
		return
	}
	NewJSONResponse().
		Header("Cache-Control", "public, max-age=3600").
		Body(logoResponse{Kind: kind, Name: name, Asset: asset}).
		Write(w)
}

func (s *Server) requireAdmin(w http.ResponseWriter) bool {
	if s.admin == nil {
		ServiceUnavailableError("admin backend not configured").Write(w)
		return false
	}
	return true
}

func (s *Server) adminFailed(w http.ResponseWriter, r *http.Request, view string, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentAdmin).ErrorContext(r.Context(),
		"Admin view failed", "view", view, applog.FieldError, err.Error())
	upstreamError(err).Write(w)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}
	page, err := ParsePage(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	res, err := s.admin.Users(r.Context(), page, ParseForce(r.URL.Query()))
	if err != nil {
		s.adminFailed(w, r, "users", err)
		return
	}
	NewJSONResponse().Cached(res.Data, res.FromCache, res.Age).Write(w)
}

type regionalResponse struct {
	Regions []core.RegionalStat `json:"regions"`
	Summary core.RegionSummary  `json:"summary"`
}

func (s *Server) handleRegional(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}
	res, err := s.admin.Regional(r.Context(), ParseForce(r.URL.Query()))
	if err != nil {
		s.adminFailed(w, r, "regional", err)
		return
	}
	regions := slices.Clone(res.Data)
	core.SortRegions(regions)
	NewJSONResponse().Cached(regionalResponse{
		Regions: regions,
		Summary: core.SummarizeRegions(regions),
	}, res.FromCache, res.Age).Write(w)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}
	res, err := s.admin.Overview(r.Context(), ParseForce(r.URL.Query()))
	if err != nil {
		s.adminFailed(w, r, "overview", err)
		return
	}
	NewJSONResponse().Cached(res.Data, res.FromCache, res.Age).Write(w)
}

func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}
	days, err := ParseDays(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	stats, err := s.admin.Temporal(r.Context(), days)
	if err != nil {
		s.adminFailed(w, r, "temporal", err)
		return
	}
	NewJSONResponse().Body(stats).Write(w)
}

func (s *Server) handleForensic(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}
	limit, err := ParseLimit(r.URL.Query(), defaultForensicLimit)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	feed, err := s.admin.Forensic(r.Context(), limit)
	if err != nil {
		s.adminFailed(w, r, "forensic", err)
		return
	}
	NewJSONResponse().Body(feed).Write(w)
}

func (s *Server) handleCacheKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.gate.Keys(r.Context())
	if err != nil {
		s.storeFailed(w, r, applog.OpRead, "", err)
		return
	}
	slices.Sort(keys)
	NewJSONResponse().Body(map[string]any{"keys": keys}).Write(w)
}

type cacheAgeResponse struct {
	Key   string `json:"key"`
	AgeMs int64  `json:"age_ms"`
	Fresh bool   `json:"fresh"`
}

// handleCacheAge reports how old an entry is and whether it is still inside
// the configured max-age.
func (s *Server) handleCacheAge(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	age, ok := s.gate.Age(r.Context(), key)
	if !ok {
		NotFoundError("no cache entry for " + key).Write(w)
		return
	}
	s.access.LogCacheEvent(r.Context(), applog.OpRead, key, true, age.Milliseconds())
	NewJSONResponse().Body(cacheAgeResponse{
		Key:   key,
		AgeMs: age.Milliseconds(),
		Fresh: age <= s.cacheTTL,
	}).Write(w)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.gate.Clear(r.Context(), key); err != nil {
		s.storeFailed(w, r, applog.OpClear, key, err)
		return
	}
	s.access.LogCacheEvent(r.Context(), applog.OpClear, key, false, 0)
	s.publish(r.Context(), amqp.NewCacheInvalidationMessage("http: cleared "+key, key))
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleCacheClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.ClearAll(r.Context()); err != nil {
		s.storeFailed(w, r, applog.OpClear, "", err)
		return
	}
	s.access.LogCacheEvent(r.Context(), applog.OpClear, "*", false, 0)
	s.publish(r.Context(), amqp.NewClearAllMessage("http: cleared all"))
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// publish tells other instances about a local clear. The local clear has
// already succeeded, so a failed publish is only logged.
func (s *Server) publish(ctx context.Context, msg *amqp.CacheInvalidationMessage) {
	if s.publisher == nil {
		return
	}
	msg.Origin = s.instance
	if err := s.publisher.PublishInvalidation(ctx, msg); err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentAMQP).WarnContext(ctx,
			"Failed to publish cache invalidation", applog.FieldError, err.Error(), "keys", msg.Keys, "all", msg.All)
	}
}

func (s *Server) storeFailed(w http.ResponseWriter, r *http.Request, op, key string, err error) {
	s.access.LogError(r.Context(), "Cache store operation failed", err, applog.ComponentCache, op,
		applog.NewFields().WithCache(key, false, 0))
	InternalServerError("cache store unavailable").Write(w)
}
