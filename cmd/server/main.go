// Command server runs the call evidence API: idempotent mutations, the
// append-only artifact and ledger stores, and the background provider worker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"callvault/internal/artifact"
	artifacthandler "callvault/internal/artifact/handler"
	"callvault/internal/audit"
	"callvault/internal/auth"
	authhandler "callvault/internal/auth/handler"
	"callvault/internal/call"
	callhandler "callvault/internal/call/handler"
	httpapi "callvault/internal/http"
	"callvault/internal/idempotency"
	"callvault/internal/jobs"
	"callvault/internal/platform/config"
	"callvault/internal/platform/httpserver"
	"callvault/internal/platform/logger"
	"callvault/internal/platform/metrics"
	"callvault/internal/platform/postgres"
	"callvault/internal/platform/redis"
	"callvault/internal/provider"
	"callvault/internal/ratelimit"
	"callvault/internal/scoring"
	scoringhandler "callvault/internal/scoring/handler"
)

const jobQueueBuffer = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	db, err := postgres.NewDB(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()

	auditStore := audit.NewPostgresStore(db)
	artifactStore := artifact.NewPostgresStore(pool)

	// Request-path ledger writes join the caller's transaction, so they stay
	// synchronous. The background worker has no transaction to join; its
	// ledger appends go through a channel drained by the audit worker.
	ledger := audit.NewLedger(auditStore)
	recorder := artifact.NewRecorder(artifactStore, ledger, m, log)

	asyncAudit := audit.NewChannelStore(auditStore, jobQueueBuffer)
	auditWorker := audit.NewWorker(auditStore, asyncAudit.Inbox())
	jobsRecorder := artifact.NewRecorder(artifactStore, audit.NewLedger(asyncAudit), m, log)

	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, m)
	queue := jobs.NewChannelQueue(jobQueueBuffer)
	worker := jobs.NewWorker(queue.Jobs(), providerClient, jobsRecorder, m, log)

	callService := call.NewService(call.NewPostgresStore(pool), providerClient, recorder, ledger, queue, log)
	scoringService := scoring.NewService(scoring.NewPostgresStore(pool), recorder, ledger, log)

	issuer := auth.NewIssuer([]byte(cfg.Server.JWTSigningKey), auth.DefaultTokenTTL)
	authService := auth.NewService(auth.NewPostgresStore(pool), issuer, log)

	idem := idempotency.New(idempotency.NewRedisStore(redisClient.Client), log,
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithClaimTTL(cfg.Idempotency.ClaimTTL),
	)
	limiter := ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit.Limit, cfg.RateLimit.Window)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:            auth.NewMiddleware(issuer, log),
		RateLimit:       ratelimit.NewMiddleware(limiter, log),
		Idempotency:     idem,
		AuthHandler:     authhandler.New(authService, log),
		CallHandler:     callhandler.New(callService, log),
		ArtifactHandler: artifacthandler.New(recorder, log),
		ScoringHandler:  scoringhandler.New(scoringService, log),
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := auditWorker.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
