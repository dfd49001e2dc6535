// Package app wires the repositories, services and transports into a
// running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/provisional"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/refproduct"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/session"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/tenantproduct"
	"github.com/heartmarshall/barcount-backend/internal/adapter/redisbus"
	"github.com/heartmarshall/barcount-backend/internal/auth"
	"github.com/heartmarshall/barcount-backend/internal/config"
	"github.com/heartmarshall/barcount-backend/internal/matching"
	"github.com/heartmarshall/barcount-backend/internal/observe"
	"github.com/heartmarshall/barcount-backend/internal/service/catalog"
	"github.com/heartmarshall/barcount-backend/internal/service/inventory"
	"github.com/heartmarshall/barcount-backend/internal/service/reconcile"
	"github.com/heartmarshall/barcount-backend/internal/service/voice"
	"github.com/heartmarshall/barcount-backend/internal/transport/middleware"
	"github.com/heartmarshall/barcount-backend/internal/transport/rest"
)

const serviceName = "barcount"

// Services is the fully wired service layer.
type Services struct {
	Matcher   *matching.Matcher
	Resolver  *catalog.Resolver
	Voice     *voice.Service
	Inventory *inventory.Service
	Reconcile *reconcile.Service
}

// NewServices wires the service layer on top of db. metrics may be nil.
func NewServices(logger *slog.Logger, db postgres.DB, cfg *config.Config, metrics *observe.Metrics) *Services {
	refRepo := refproduct.New(db)
	productRepo := tenantproduct.New(db)
	provisionalRepo := provisional.New(db)
	sessionRepo := session.New(db)
	auditRepo := audit.New(db)
	tx := postgres.NewTxManager(db)

	matcher := matching.NewMatcher(refRepo, matching.TTLPolicy(cfg.Matching.CacheTTL),
		matching.WithMinSimilarity(cfg.Matching.MinSimilarity),
		matching.WithLogger(logger),
	)
	resolver := catalog.NewResolver(logger, matcher, productRepo, provisionalRepo, auditRepo, tx, cfg.Matching)
	voiceSvc := voice.NewService(logger, resolver, metrics)

	return &Services{
		Matcher:  matcher,
		Resolver: resolver,
		Voice:    voiceSvc,
		Inventory: inventory.NewService(logger, inventory.Deps{
			Sessions:    sessionRepo,
			Products:    productRepo,
			Provisional: provisionalRepo,
			Audit:       auditRepo,
			Parser:      voiceSvc,
			Tx:          tx,
			Metrics:     metrics,
		}, cfg.Inventory),
		Reconcile: reconcile.NewService(logger, provisionalRepo, productRepo, sessionRepo, auditRepo, tx,
			metrics, cfg.Inventory.DefaultPageSize),
	}
}

// Run serves HTTP until ctx is cancelled or a component fails. When Redis
// is configured it also listens for catalog changes and drops the matcher
// snapshot on each one.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.InfoContext(ctx, "starting server",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	// 1. Database
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	checks := map[string]rest.Check{"database": pool.Ping}

	// 2. Metrics
	var (
		metrics        *observe.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		provider, err := observe.InitProvider(ctx, serviceName, Version)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown", slog.String("error", err.Error()))
			}
		}()
		if metrics, err = observe.NewMetrics(provider.MeterProvider); err != nil {
			return fmt.Errorf("create instruments: %w", err)
		}
		metricsHandler = provider.Handler()
	}

	// 3. Services
	svc := NewServices(logger, pool, cfg, metrics)
	if err := svc.Matcher.Warm(ctx); err != nil {
		// The cache rebuilds lazily on the first request.
		logger.WarnContext(ctx, "catalog warm-up failed", slog.String("error", err.Error()))
	}

	// 4. Catalog events
	var bus *redisbus.Bus
	if cfg.Redis.Enabled() {
		client, err := redisbus.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		bus = redisbus.New(client, cfg.Redis.Channel, logger)
		checks["redis"] = redisPing(client)
	}

	// 5. HTTP
	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()
	handler := NewHandler(logger, cfg, svc, HandlerOptions{
		Checks:         checks,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		VoiceLimit:     limiter.Limit(cfg.Server.VoiceRateLimit),
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	if bus != nil {
		g.Go(func() error {
			return bus.Subscribe(gctx, svc.Matcher)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// HandlerOptions carries the optional pieces of the HTTP stack.
type HandlerOptions struct {
	Checks         map[string]rest.Check
	Metrics        *observe.Metrics
	MetricsHandler http.Handler
	VoiceLimit     middleware.Middleware
}

// NewHandler mounts the REST routes on top of svc and wraps them in the
// request middleware chain. Auth runs innermost so the logger sees the
// identity it resolved.
func NewHandler(logger *slog.Logger, cfg *config.Config, svc *Services, opts HandlerOptions) http.Handler {
	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	mux := rest.NewRouter(rest.Routes{
		Sessions:    rest.NewSessionHandler(svc.Inventory, logger),
		Voice:       rest.NewVoiceHandler(svc.Voice, svc.Inventory, logger),
		Admin:       rest.NewAdminHandler(svc.Reconcile, logger),
		Health:      rest.NewHealthHandler(BuildVersion(), opts.Checks),
		Metrics:     opts.MetricsHandler,
		MetricsPath: cfg.Metrics.Path,
		VoiceLimit:  opts.VoiceLimit,
	})
	return middleware.Chain(
		observe.Middleware(opts.Metrics),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(jwt),
	)(mux)
}

func redisPing(client goredis.UniversalClient) rest.Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
