package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tracepay/internal/amqp"
	"tracepay/internal/cache"
)

// Recorder receives worker outcomes. internal/metrics implements it.
type Recorder interface {
	Invalidation(err error, rejected bool)
	RegionalExported(rows int)
}

type nopRecorder struct{}

func (nopRecorder) Invalidation(error, bool) {}
func (nopRecorder) RegionalExported(int)     {}

// InvalidationWorker applies cache invalidation messages to a gate.
type InvalidationWorker struct {
	gate     *cache.Gate
	recorder Recorder
	logger   *slog.Logger
	self     string
}

func NewInvalidationWorker(gate *cache.Gate, recorder Recorder, logger *slog.Logger) *InvalidationWorker {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationWorker{gate: gate, recorder: recorder, logger: logger}
}

// SkipOrigin makes the worker acknowledge, without applying, messages
// published by the instance id. A server uses it to ignore the echo of
// its own clears.
func (w *InvalidationWorker) SkipOrigin(id string) *InvalidationWorker {
	w.self = id
	return w
}

// HandleInvalidation clears the keys named by msg, or every entry when
// msg.All is set. Every key is attempted; failures are joined.
func (w *InvalidationWorker) HandleInvalidation(ctx context.Context, msg *amqp.CacheInvalidationMessage) error {
	if w.self != "" && msg.Origin == w.self {
		w.logger.DebugContext(ctx, "Skipping own cache invalidation", "component", "worker", "origin", msg.Origin)
		return nil
	}
	err := w.apply(ctx, msg)
	w.recorder.Invalidation(err, false)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Cache invalidated",
		"component", "worker",
		"keys", msg.Keys,
		"all", msg.All,
		"reason", msg.Reason,
		"origin", msg.Origin,
		"sent_at", msg.Timestamp)
	return nil
}

func (w *InvalidationWorker) apply(ctx context.Context, msg *amqp.CacheInvalidationMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.All {
		if err := w.gate.ClearAll(ctx); err != nil {
			return fmt.Errorf("clear all: %w", err)
		}
		return nil
	}
	var errs []error
	for _, k := range msg.Keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if err := w.gate.Clear(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
