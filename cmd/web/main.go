// cmd/web/main.go
//
// Stolyo – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (system-wide file → conf/.env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load and validate configuration (YAML + env + Vault secrets).
//
//  4. Open the control-plane DB and log the tenant count as an early
//     sanity check.
//
//  5. Build the host cache, resolver, tenant-pool registry, session
//     manager, guard, provisioning service, and upload signer.
//
//  6. Serve the chi route table behind hardened timeouts; SIGINT/SIGTERM
//     drain in-flight requests, then close every tenant pool.
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/stolyo/internal/access"
	"github.com/yanizio/stolyo/internal/config"
	"github.com/yanizio/stolyo/internal/database"
	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/logger"
	"github.com/yanizio/stolyo/internal/provision"
	"github.com/yanizio/stolyo/internal/requestinfo"
	"github.com/yanizio/stolyo/internal/resolver"
	"github.com/yanizio/stolyo/internal/server"
	"github.com/yanizio/stolyo/internal/session"
	"github.com/yanizio/stolyo/internal/tenantdb"
	"github.com/yanizio/stolyo/internal/uploads"
	"github.com/yanizio/stolyo/internal/web"
)

const (
	serverEnvPath = "/usr/local/etc/stolyo/global.env"
	hostCacheTTL  = 5 * time.Minute
)

// loadEnv prefers the system-wide env file; on dev it falls back to
// conf/.env via the config loader.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
	}
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sugar, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	//
	// ── 1.  Control-plane DB ────────────────────────────────────────────
	//
	sugar.Infow("connecting to control-plane DB")
	controlDB, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		sugar.Fatalw("connect control-plane DB", "error", err)
	}
	defer controlDB.Close()

	store := directory.NewStore(controlDB)

	// Early sanity check: how many tenants does this deployment carry?
	if tenants, err := store.AllTenants(ctx); err == nil {
		sugar.Infow("control-plane DB online", "tenants", len(tenants))
	} else {
		sugar.Warnw("control-plane DB online, tenant count unavailable", "error", err)
	}

	//
	// ── 2.  Resolver, registries, sessions, guard ──────────────────────
	//
	var hostCache *directory.HostCache
	if cfg.Redis.Addr != "" {
		hostCache = directory.NewHostCache(cfg.Redis.Addr, hostCacheTTL)
		defer hostCache.Close()
	}

	res := resolver.New(store, hostCache, cfg.Hosts.Dashboard, cfg.Hosts.MarketingHost())
	sessions := session.NewManager(cfg.Session.Secret)
	guard := access.NewGuard(sessions, res, store)

	registry := tenantdb.NewRegistry(cfg.Database.URL)
	defer func() { _ = registry.CloseAll() }()

	provisioner := provision.NewService(controlDB, hostCache, cfg.Hosts.Dashboard)

	signer, err := uploads.NewSigner(ctx, uploads.Settings{
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		sugar.Fatalw("build upload signer", "error", err)
	}
	if !signer.Enabled() {
		sugar.Infow("object storage not configured, uploads disabled")
	}

	enricher := requestinfo.NewEnricher(cfg.Geo.DBPath)
	defer enricher.Close()

	//
	// ── 3.  HTTP server ────────────────────────────────────────────────
	//
	handler := web.NewRouter(web.Deps{
		Store:       store,
		Resolver:    res,
		Guard:       guard,
		Sessions:    sessions,
		Registry:    registry,
		Provisioner: provisioner,
		Uploads:     signer,
		Enricher:    enricher,
		AdminAPIKey: cfg.Admin.APIKey,
		ForceHTTPS:  cfg.HTTP.ForceHTTPS,
	})

	srv := server.New(cfg.HTTP.ListenAddr, handler)

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	//
	// ── 4.  Graceful shutdown ──────────────────────────────────────────
	//
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		sugar.Infow("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("http server", "error", err)
		}
	}

	zap.S().Infow("bye")
}
