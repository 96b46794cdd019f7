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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CSroseX/bisney/internal/analytics"
	"github.com/CSroseX/bisney/internal/attack"
	"github.com/CSroseX/bisney/internal/config"
	"github.com/CSroseX/bisney/internal/counter"
	"github.com/CSroseX/bisney/internal/decisionlog"
	"github.com/CSroseX/bisney/internal/inject"
	"github.com/CSroseX/bisney/internal/logging"
	"github.com/CSroseX/bisney/internal/metrics"
	"github.com/CSroseX/bisney/internal/observability"
	"github.com/CSroseX/bisney/internal/simulation"
	"github.com/CSroseX/bisney/internal/storefront"
)

func runServe(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	variant, err := config.LookupVariant(cfg.Variant)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()
	dlog := decisionlog.New(logger)

	tp, shutdownTracer, err := observability.InitTracer(observability.TracerConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Enabled:     cfg.Tracing.Enabled,
		Pretty:      cfg.Tracing.Pretty,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	var tenantIDs []string
	for _, t := range variant.Tenants() {
		tenantIDs = append(tenantIDs, t.ID)
	}
	reg.Prime(tenantIDs...)

	state := simulation.NewState()
	state.OnChange(func(c simulation.Change) {
		v := 0.0
		if c.Active {
			v = 1
		}
		reg.SetGauge(metrics.SimulationMode, prometheus.Labels{metrics.LabelMode: c.Flag}, v)
		if c.Recovered {
			dlog.Info(context.Background(), decisionlog.ModeRecovered(c.Flag), "Simulation mode expired",
				zap.Bool(c.Flag+"_mode", false))
		}
	})

	var (
		clicks counter.Counter = counter.NewMemory()
		stats  *analytics.Analytics
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(cmd.Context()).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		clicks = counter.NewRedis(rdb, cfg.Redis.KeyPrefix)
		stats = analytics.NewAnalytics(rdb)
	}

	rnd := inject.NewLockedRand(cfg.Probabilistic.Seed)
	policy, err := cfg.NewPolicy(rnd)
	if err != nil {
		return err
	}

	shop := storefront.New(storefront.Deps{
		Variant:        variant,
		State:          state,
		Counter:        clicks,
		Policy:         policy,
		Metrics:        reg,
		MetricsHandler: reg.Handler(),
		Log:            dlog,
		Tracer:         tp.Tracer("bisney/storefront"),
		Analytics:      stats,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           shop.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	pool := &attack.Pool{
		Workers: cfg.Attack.Workers,
		Targets: attack.Targets(cfg.AttackTarget(), "/cart", variant.LookupPath()),
		Client:  &http.Client{Timeout: cfg.Attack.Timeout},
		Idle:    cfg.Attack.Idle,
		Active:  state.DDoS,
		Rand:    rnd,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dlog.Info(ctx, decisionlog.EventStartup, "Bisney storefront started",
			zap.String("addr", cfg.Addr),
			zap.String("variant", variant.Name),
			zap.String("policy", policy.Name()),
			zap.Int("attack_workers", cfg.Attack.Workers),
			zap.Bool("redis", cfg.Redis.Addr != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", cfg.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		return pool.Run(ctx)
	})
	g.Go(func() error {
		return state.AutoRecover(ctx, cfg.RecoverInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		dlog.Info(context.Background(), decisionlog.EventShutdown, "Bisney storefront stopped")
		return err
	})

	return g.Wait()
}
