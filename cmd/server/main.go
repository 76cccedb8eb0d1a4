package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crossfitlagos/member-portal/internal/api"
	"github.com/crossfitlagos/member-portal/internal/api/handler"
	"github.com/crossfitlagos/member-portal/internal/api/metrics"
	"github.com/crossfitlagos/member-portal/internal/api/middleware"
	"github.com/crossfitlagos/member-portal/internal/core/credential"
	"github.com/crossfitlagos/member-portal/internal/core/portal"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
	"github.com/crossfitlagos/member-portal/internal/core/service"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/db/memory"
	mongodb "github.com/crossfitlagos/member-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/crossfitlagos/member-portal/internal/infrastructure/db/redis"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/directory"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/gateway"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/identity"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/pause"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/queue"
	"github.com/crossfitlagos/member-portal/internal/pkg/config"
	"github.com/crossfitlagos/member-portal/pkg/logger"
)

const (
	keyPrefix     = "portal:"
	sweepInterval = time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "member-portal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "member-portal",
		Env:     cfg.Env,
	})
	recorder := metrics.NewRecorder()
	checks := map[string]handler.Check{}

	// --- Device key-value store ---
	var (
		kv  ports.KeyValueStore
		mem *memory.KeyValueStore
	)
	switch cfg.Session.Store {
	case "memory":
		mem = memory.NewKeyValueStore()
		kv = mem
		log.Warn().Msg("using in-memory session store; sessions are lost on restart")
	default:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		kv = redisdb.NewKeyValueStore(rdb, keyPrefix)
		checks["redis"] = func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) }
	}

	// --- Audit trail ---
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	var dispatcher *queue.Dispatcher
	if cfg.Audit.Enabled {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "member-portal",
		})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		if cfg.Audit.Key == "" {
			log.Warn().Msg("AUDIT_KEY not set; phone pseudonyms are unkeyed hashes")
		}
		repo := mongodb.NewAuthEventRepository(db, mongodb.NewPseudonymizer(cfg.Audit.Key))
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("auth event indexes not ensured")
		}

		dispatcher = queue.NewDispatcher(cfg.Audit.Workers, repo, logger.Component("audit"))
		dispatcher.OnDrop(recorder.AuditDropped)
		dispatcher.Start(auditCtx)
		checks["mongodb"] = func(ctx context.Context) error { return mongodb.Ping(ctx, db) }
	}

	// --- Backends ---
	gw := gateway.New(cfg.Directory.URL, cfg.Directory.Timeout, logger.Component("gateway"),
		gateway.WithObserver(recorder))
	dir := directory.New(gw, logger.Component("directory"))

	var idp ports.IdentityProvider
	if cfg.Identity.Enabled() {
		idp = identity.NewFirebase(identity.Config{
			BaseURL: cfg.Identity.BaseURL,
			APIKey:  cfg.Identity.APIKey,
			Timeout: cfg.Identity.Timeout,
		}, logger.Component("identity"), identity.WithObserver(recorder))
	} else {
		log.Warn().Msg("IDENTITY_API_KEY not set; logins go straight to the member directory")
	}

	var pauseGateway ports.PauseGateway
	if cfg.Pause.URL != "" {
		pauseGateway = pause.New(gateway.New(cfg.Pause.URL, cfg.Directory.Timeout, logger.Component("gateway"),
			gateway.WithName("pause"), gateway.WithObserver(recorder)))
	}

	// --- Core ---
	opts := []service.ReconcilerOption{
		service.WithMetrics(recorder),
		service.WithSessionTTL(cfg.Session.TTL),
		service.WithFlightTimeout(2*cfg.Identity.Timeout + 2*cfg.Directory.Timeout),
		service.WithSynthesizer(credential.NewSynthesizer(cfg.Identity.EmailDomain)),
	}
	if dispatcher != nil {
		opts = append(opts, service.WithEventRecorder(dispatcher))
	}
	reconciler := service.NewReconciler(dir, idp, logger.Component("reconciler"), opts...)
	pauseService := service.NewPauseService(pauseGateway, logger.Component("pause"))
	controller := portal.NewController(reconciler, dir, pauseService, kv, cfg.Session.TTL, logger.Component("portal"))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	accounts := middleware.NewRateLimiter(cfg.RateLimit.AccountPerMinute/60, cfg.RateLimit.Burst)
	go sweep(ctx, mem, limiter, accounts)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Portal:         controller,
		Checks:         checks,
		Device:         middleware.DeviceConfig{Secure: cfg.CookieSecure, MaxAge: cfg.Session.TTL},
		RateLimiter:    limiter,
		AccountLimiter: accounts,
		CORSOrigins:    cfg.CORSOrigins,
		Log:            logger.Component("http"),
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Bool("primary_enabled", idp != nil).
			Bool("pause_enabled", pauseGateway != nil).
			Bool("audit_enabled", dispatcher != nil).
			Msg("member portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// In-flight directory calls may take the full directory timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Directory.Timeout+5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	if dispatcher != nil {
		stopAudit()
		dispatcher.Wait()
	}
	log.Info().Msg("stopped")
	return nil
}

// sweep drops idle rate-limit buckets and expired in-memory keys.
func sweep(ctx context.Context, mem *memory.KeyValueStore, limiters ...*middleware.RateLimiter) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, l := range limiters {
				l.Sweep()
			}
			if mem != nil {
				if n := mem.Sweep(); n > 0 {
					log := logger.Get()
					log.Debug().Int("keys", n).Msg("expired session keys swept")
				}
			}
		}
	}
}
