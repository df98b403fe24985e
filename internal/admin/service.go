// Package admin serves the dashboard's admin views through the cache gate.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tracepay/internal/cache"
	"tracepay/internal/core"
)

// Cache keys for the gated views.
const (
	KeyUsers    = "data_log_users"
	KeyRegional = "admin_regional"
	KeyOverview = "admin_overview"
)

// Keys lists every key the service writes.
var Keys = []string{KeyUsers, KeyRegional, KeyOverview}

// Backend is the subset of the admin API the service reads from.
type Backend interface {
	ListUsers(ctx context.Context, page core.PageRequest) (core.UsersPage, error)
	RegionalStats(ctx context.Context) ([]core.RegionalStat, error)
	OverviewStats(ctx context.Context) (core.OverviewStats, error)
	TemporalStats(ctx context.Context, days int) (core.TemporalStats, error)
	ForensicFeed(ctx context.Context, limit int) ([]core.ForensicEntry, error)
	SyncAll(ctx context.Context) (core.StatusMessage, error)
}

type Service struct {
	backend  Backend
	gate     *cache.Gate
	logger   *slog.Logger
	users    *cache.Loader[core.UsersPage]
	regional *cache.Loader[[]core.RegionalStat]
	overview *cache.Loader[core.OverviewStats]
}

// NewService wires the gated views. ttl <= 0 uses cache.DefaultTTL.
func NewService(backend Backend, gate *cache.Gate, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	firstPage := core.PageRequest{Skip: 0, Limit: core.DefaultPageLimit}
	return &Service{
		backend: backend,
		gate:    gate,
		logger:  logger,
		users: cache.NewLoader(gate, KeyUsers, ttl, func(ctx context.Context) (core.UsersPage, error) {
			return backend.ListUsers(ctx, firstPage)
		}),
		regional: cache.NewLoader(gate, KeyRegional, ttl, backend.RegionalStats),
		overview: cache.NewLoader(gate, KeyOverview, ttl, backend.OverviewStats),
	}
}

// Users returns a page of users. Only the default first page is cached;
// other pages always go to the backend.
func (s *Service) Users(ctx context.Context, page core.PageRequest, force bool) (cache.Result[core.UsersPage], error) {
	if err := page.Validate(); err != nil {
		return cache.Result[core.UsersPage]{}, err
	}
	if page.First() && page.Limit == core.DefaultPageLimit {
		return s.users.Get(ctx, force)
	}
	p, err := s.backend.ListUsers(ctx, page)
	if err != nil {
		return cache.Result[core.UsersPage]{}, fmt.Errorf("list users: %w", err)
	}
	return cache.Result[core.UsersPage]{Data: p}, nil
}

func (s *Service) Regional(ctx context.Context, force bool) (cache.Result[[]core.RegionalStat], error) {
	return s.regional.Get(ctx, force)
}

func (s *Service) Overview(ctx context.Context, force bool) (cache.Result[core.OverviewStats], error) {
	return s.overview.Get(ctx, force)
}

// Temporal is not cached; the window changes with every request.
func (s *Service) Temporal(ctx context.Context, days int) (core.TemporalStats, error) {
	return s.backend.TemporalStats(ctx, days)
}

// Forensic returns the latest analyses. The feed is live and never cached.
func (s *Service) Forensic(ctx context.Context, limit int) ([]core.ForensicEntry, error) {
	return s.backend.ForensicFeed(ctx, limit)
}

// SyncAll triggers a backend resync and drops the cached views so the next
// read fetches fresh data.
func (s *Service) SyncAll(ctx context.Context) (core.StatusMessage, error) {
	msg, err := s.backend.SyncAll(ctx)
	if err != nil {
		return msg, err
	}
	if err := s.Invalidate(ctx, Keys...); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate admin cache after sync", "component", "admin", "error", err)
	}
	return msg, nil
}

// Invalidate clears the given cache keys, continuing past failures.
func (s *Service) Invalidate(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := s.gate.Clear(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Warm loads every gated view concurrently, skipping views that are still
// fresh.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.users.Get(ctx, false)
		return wrap(KeyUsers, err)
	})
	g.Go(func() error {
		_, err := s.regional.Get(ctx, false)
		return wrap(KeyRegional, err)
	})
	g.Go(func() error {
		_, err := s.overview.Get(ctx, false)
		return wrap(KeyOverview, err)
	})
	return g.Wait()
}

func wrap(key string, err error) error {
	if err != nil {
		return fmt.Errorf("warm %s: %w", key, err)
	}
	return nil
}
