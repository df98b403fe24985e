// Command tracepayctl inspects and manages local tracepay state: logo
// matching, cached dashboard data, app preferences and the admin session.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"tracepay/internal/cli"
	"tracepay/internal/config"
	"tracepay/internal/kv"
	applog "tracepay/internal/log"
	"tracepay/internal/settings"
)

// runtime is bound into every command's Run method.
type runtime struct {
	ctx      context.Context
	out      io.Writer
	cfg      *config.Config
	logger   *applog.Logger
	stack    *cli.Stack
	settings *settings.State
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *applog.Logger, store kv.Store, out io.Writer) (*runtime, error) {
	stack, err := cli.NewStack(cfg, logger, store, nil)
	if err != nil {
		return nil, err
	}
	prefs := settings.New(store, logger.WithComponent(applog.ComponentSettings).Slog())
	if err := prefs.Load(ctx); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &runtime{
		ctx:      ctx,
		out:      out,
		cfg:      cfg,
		logger:   logger,
		stack:    stack,
		settings: prefs,
	}, nil
}

func main() {
	var c CLI
	kctx := kong.Parse(&c,
		kong.Name("tracepayctl"),
		kong.Description("Inspect and manage local tracepay state."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	kctx.FatalIfErrorf(run(kctx))
}

func run(kctx *kong.Context) error {
	// Logs go to stderr so command output stays pipeable.
	cfg, logger := cli.LoadAndValidateConfig(os.Stderr)
	ctx := context.Background()

	store, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close data backend", "error", err)
		}
	}()

	rt, err := newRuntime(ctx, cfg, logger, store.Store, os.Stdout)
	if err != nil {
		return err
	}
	return kctx.Run(rt)
}
