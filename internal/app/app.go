// Package app wires the server components together and owns their
// lifecycle: config validation, store, chat controller, retention
// scheduler and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dexchat/internal/retention"
	"dexchat/pkg/banner"
	"dexchat/pkg/chat"
	"dexchat/pkg/config"
	"dexchat/pkg/logger"
	"dexchat/pkg/store"
	"dexchat/pkg/tools"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	ctrl            *chat.Controller
	retentionCancel context.CancelFunc

	srv *http.Server
}

// New initializes resources that do not require a running context (store,
// runtime config, chat controller). It does not start the retention
// scheduler or the HTTP server; call Run to start those and block until
// shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	rc := &config.RuntimeConfig{
		AuthSecrets: append([]string(nil), eff.Config.Security.Auth.Secrets...),
		RateRPS:     eff.Config.Security.RateLimit.RPS,
		RateBurst:   eff.Config.Security.RateLimit.Burst,
	}
	config.SetRuntime(rc)

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	tokenDelay, toolLatency := eff.Config.Chat.Delays()
	ctrl := chat.NewController(tools.Default(toolLatency), tokenDelay)

	return &App{eff: eff, version: version, commit: commit, buildDate: buildDate, ctrl: ctrl}, nil
}

// Run starts the retention scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs. On cancellation it drains
// in-flight requests before returning.
func (a *App) Run(ctx context.Context) error {
	cancelRetention, err := retention.Start(ctx, a.eff.Config.Retention)
	if err != nil {
		return err
	}
	a.retentionCancel = cancelRetention

	a.printBanner()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func (a *App) shutdown() error {
	logger.Info("server_shutting_down")
	if a.retentionCancel != nil {
		a.retentionCancel()
	}
	sdCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(sdCtx); err != nil {
		logger.Warn("http_shutdown_error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
		return err
	}
	logger.Info("server_stopped")
	return nil
}

func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.PrintWithEff(a.eff, verStr)
}
