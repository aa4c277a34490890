// Package retention runs the scheduled purge of idle chat sessions. A
// session whose newest message is older than the configured period is
// deleted together with all of its messages.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"dexchat/pkg/config"
	"dexchat/pkg/logger"
	"dexchat/pkg/store"
)

const defaultCron = "0 2 * * *"

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	period, err := time.ParseDuration(cfg.Period)
	if err != nil || period <= 0 {
		logger.Error("retention_invalid_period", "period", cfg.Period)
		return nil, fmt.Errorf("invalid retention period: %q", cfg.Period)
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", period.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, period)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, period time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if _, err := RunOnce(period); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep and returns how many sessions were purged.
// Exported so an operator trigger or test can run retention on demand.
func RunOnce(period time.Duration) (int, error) {
	cutoff := time.Now().Add(-period).UnixMilli()
	ids, err := store.ListSessionIDs()
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, sid := range ids {
		sum, err := store.GetSession(sid)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Error("retention_session_read_failed", "session", sid, "error", err)
			continue
		}
		if sum.LastMessageAt >= cutoff {
			continue
		}
		if err := store.DeleteSession(sid); err != nil {
			logger.Error("retention_purge_failed", "session", sid, "error", err)
			continue
		}
		purged++
	}
	if purged > 0 {
		logger.Info("retention_run_complete", "purged", purged)
	}
	return purged, nil
}
