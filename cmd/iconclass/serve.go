package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/iconclass/internal/cache"
	"github.com/crimson-sun/iconclass/internal/config"
	"github.com/crimson-sun/iconclass/internal/engine"
	"github.com/crimson-sun/iconclass/internal/httpapi"
	"github.com/crimson-sun/iconclass/internal/metrics"
	"github.com/crimson-sun/iconclass/internal/output"
	"github.com/crimson-sun/iconclass/internal/output/async"
	"github.com/crimson-sun/iconclass/internal/output/file"
	"github.com/crimson-sun/iconclass/internal/output/stdout"
	"github.com/crimson-sun/iconclass/internal/ratelimit"
)

const limiterPruneInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve GET /v1/icon/choose over HTTP",
	Long: `Serve loads the corpus (or precompiled tables), then answers
GET /v1/icon/choose?name=<query> with a JSON array of icon identifiers.
SIGHUP reloads the corpus; SIGINT and SIGTERM shut down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = newRedis(ctx, cfg.Redis)
		defer rdb.Close()
	}

	loadCfg := loadConfigFor(cfg)
	arts, err := engine.Load(ctx, loadCfg)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	eng, err := engine.New(arts,
		engine.WithCache(newCache(cfg.Cache, rdb)),
		engine.WithMaxResults(cfg.Engine.MaxResults),
	)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	var opts []httpapi.Option
	out, err := newPredictionOutput(cfg.Output)
	if err != nil {
		return err
	}
	if out != nil {
		defer out.Close()
		opts = append(opts, httpapi.WithOutput(out))
	}
	limiter := newLimiter(cfg.RateLimit, rdb)
	if limiter != nil {
		opts = append(opts, httpapi.WithRateLimiter(limiter))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.NewIconAPI(eng, opts...).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.Server.Addr, "version", config.Version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		reloadOnHangup(gctx, eng, loadCfg)
		return nil
	})
	if l, ok := limiter.(*ratelimit.Limiter); ok {
		g.Go(func() error {
			pruneLimiter(gctx, l)
			return nil
		})
	}
	return g.Wait()
}

// reloadOnHangup rebuilds the tables on every SIGHUP. A failed reload keeps
// serving the previous snapshot.
func reloadOnHangup(ctx context.Context, eng *engine.Engine, loadCfg engine.LoadConfig) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			slog.Info("reloading tables")
			arts, err := engine.Load(ctx, loadCfg)
			if err != nil {
				metrics.IncReload(false)
				slog.Error("reload failed, keeping current tables", "error", err)
				continue
			}
			if err := eng.Reload(arts); err != nil {
				slog.Error("reload failed, keeping current tables", "error", err)
			}
		}
	}
}

func pruneLimiter(ctx context.Context, l *ratelimit.Limiter) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(); n > 0 {
				slog.Debug("pruned rate limiter", "clients", n)
			}
		}
	}
}

func newRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Both Redis consumers degrade gracefully, so start anyway.
		slog.Warn("redis unreachable", "addr", cfg.Addr, "error", err)
	}
	return client
}

func newCache(cfg config.CacheConfig, rdb *redis.Client) cache.Cache {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedis(rdb, "", cfg.TTL)
	case "none":
		return cache.Nop{}
	default:
		return cache.NewLRU(cfg.Size, cfg.TTL)
	}
}

func newLimiter(cfg config.RateLimitConfig, rdb *redis.Client) ratelimit.RateLimiter {
	if cfg.Interval <= 0 {
		return nil
	}
	if cfg.Backend == "redis" {
		return ratelimit.NewRedis(rdb, "", cfg.Interval)
	}
	return ratelimit.New(cfg.Interval)
}

// newPredictionOutput returns nil when the prediction log is disabled.
func newPredictionOutput(cfg config.OutputConfig) (output.Output, error) {
	var inner output.Output
	switch cfg.PredictionLog {
	case "":
		return nil, nil
	case "-":
		inner = stdout.New(cfg.Verbose, false)
	default:
		f, err := file.New(cfg.PredictionLog,
			file.WithMaxSize(cfg.MaxSize),
			file.WithVerbose(cfg.Verbose),
		)
		if err != nil {
			return nil, err
		}
		inner = f
	}
	return async.New(inner, async.WithDropOnFull()), nil
}
