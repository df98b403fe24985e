package cli

import (
	"fmt"

	"tracepay/internal/admin"
	"tracepay/internal/api"
	"tracepay/internal/cache"
	"tracepay/internal/config"
	"tracepay/internal/kv"
	applog "tracepay/internal/log"
	"tracepay/internal/metrics"
	"tracepay/internal/session"
)

// Stack is the set of services every binary builds over one kv.Store.
type Stack struct {
	Gate    *cache.Gate
	Session *session.Store
	API     *api.Client
	Admin   *admin.Service
}

// NewStack wires the cache gate, session, admin API client and admin
// service. m may be nil.
func NewStack(cfg *config.Config, logger *applog.Logger, store kv.Store, m *metrics.Metrics) (*Stack, error) {
	opts := []cache.Option{cache.WithLogger(logger.WithComponent(applog.ComponentCache).Slog())}
	if m != nil {
		opts = append(opts, cache.WithObserver(m))
	}
	gate := cache.NewGate(store, opts...)
	sess := session.New(store)

	client, err := api.New(cfg.APIBaseURL, sess,
		api.WithTimeouts(cfg.APITimeout, cfg.APIStatsTimeout),
		api.WithLogger(logger.WithComponent(applog.ComponentAPI).Slog()))
	if err != nil {
		return nil, fmt.Errorf("create admin API client: %w", err)
	}

	return &Stack{
		Gate:    gate,
		Session: sess,
		API:     client,
		Admin:   admin.NewService(client, gate, cfg.CacheTTL, logger.WithComponent(applog.ComponentAdmin).Slog()),
	}, nil
}
