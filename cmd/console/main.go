// cmd/console/main.go
//
// Database console – HTTP entry point.
//
// Start-up
// --------
//
//  1. Bootstrap logger on stderr so config problems are visible.
//
//  2. Load configuration (`conf/.env` → `conf/console.yaml` → DBCONSOLE_ env).
//
//  3. Switch to the daily rotating file logger (tees to stdout in a TTY).
//
//  4. Build the backend client, both registries, the notification queue,
//     and the console controller.  The first load runs before the listener
//     opens; a backend that is down is reported on the page, not fatal.
//
//  5. Serve the chi router until SIGINT or SIGTERM, then drain for up to
//     ten seconds.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/yanizio/dbconsole/internal/backend"
	"github.com/yanizio/dbconsole/internal/clipboard"
	"github.com/yanizio/dbconsole/internal/config"
	"github.com/yanizio/dbconsole/internal/console"
	"github.com/yanizio/dbconsole/internal/csrf"
	"github.com/yanizio/dbconsole/internal/logger"
	"github.com/yanizio/dbconsole/internal/notify"
	"github.com/yanizio/dbconsole/internal/probe"
	"github.com/yanizio/dbconsole/internal/registry"
	"github.com/yanizio/dbconsole/internal/server"
	"github.com/yanizio/dbconsole/internal/view"
	"github.com/yanizio/dbconsole/internal/web"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func viewPolicy(v config.View) view.CachePolicy {
	if v.Reload {
		return view.CacheSkip
	}
	return view.CacheDefault
}

func main() {
	boot, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("bootstrap logger: %v", err)
	}
	zap.ReplaceGlobals(boot)

	//
	// ── 1.  Configuration and file logger ───────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		boot.Sugar().Fatalw("configuration", "err", err)
	}

	logOut, err := logger.New(logger.Options{Root: cfg.Paths.Root, Tee: runningInTTY(), Level: cfg.Log.Level})
	if err != nil {
		boot.Sugar().Fatalw("start logger", "err", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 2.  Backend, registries, console ────────────────────────────────
	//
	client := backend.New(backend.Options{
		BaseURL:       cfg.Backend.BaseURL,
		TemplatesPath: cfg.Backend.TemplatesPath,
		DatabasesPath: cfg.Backend.DatabasesPath,
		Timeout:       cfg.Backend.Timeout,
	}, logOut.Named("backend"))

	loc := cfg.Location()
	clk := clock.New()
	notes := notify.New(clk, cfg.Console.NotificationTimeout, logOut.Named("notify"))
	databases := registry.NewDatabases(client, logOut.Named("registry"))
	templates := registry.NewTemplates(client, logOut.Named("registry"))

	c := console.New(templates, databases, client, notes, console.Options{
		Clock:     clk,
		Location:  loc,
		MinExpiry: cfg.Console.ExpiryMin,
		MaxExpiry: cfg.Console.ExpiryMax,
	}, logOut.Named("console"))
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		logOut.Warnw("initial load incomplete", "err", err)
	}
	logOut.Infow("registries loaded", "templates", templates.Len(), "databases", databases.Len())

	//
	// ── 3.  HTTP surface ────────────────────────────────────────────────
	//
	signer, err := csrf.NewSigner([]byte(cfg.Console.CSRFKey), 0, clk)
	if err != nil {
		logOut.Fatalw("csrf signer", "err", err)
	}

	renderer := view.New(view.Options{
		OverrideDir: cfg.View.OverrideDir,
		Policy:      viewPolicy(cfg.View),
		Location:    loc,
	}, logOut.Named("view"))

	deps := web.Deps{
		Console: c,
		View:    renderer,
		CSRF:    signer,
		Copier:  clipboard.New(cfg.Console.Clipboard),
		Log:     logOut.Named("http"),

		// Only the view settings apply live; everything else needs a restart.
		ReloadConfig: func() error {
			if err := config.Reload(); err != nil {
				return err
			}
			next := config.Get()
			renderer.Reconfigure(next.View.OverrideDir, viewPolicy(next.View))
			return nil
		},
	}
	if cfg.Probe.Enabled {
		deps.Prober = probe.New(probe.Options{Driver: cfg.Probe.Driver, Timeout: cfg.Probe.Timeout})
	}

	srv := server.New(cfg.HTTP.ListenAddr, web.NewRouter(deps), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	errc := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logOut.Fatalw("http server", "err", err)
		}
	case <-ctx.Done():
		logOut.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logOut.Errorw("graceful shutdown", "err", err)
		}
	}
}
