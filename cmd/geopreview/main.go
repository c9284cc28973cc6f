package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
	"github.com/mohammed-shakir/geopreview/internal/basemap/events"
	"github.com/mohammed-shakir/geopreview/internal/cache"
	"github.com/mohammed-shakir/geopreview/internal/cache/redisstore"
	"github.com/mohammed-shakir/geopreview/internal/core/config"
	"github.com/mohammed-shakir/geopreview/internal/core/health"
	"github.com/mohammed-shakir/geopreview/internal/core/observability"
	"github.com/mohammed-shakir/geopreview/internal/core/router"
	"github.com/mohammed-shakir/geopreview/internal/core/server"
	"github.com/mohammed-shakir/geopreview/internal/geometry/features"
	"github.com/mohammed-shakir/geopreview/internal/logger"
	"github.com/mohammed-shakir/geopreview/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	instance := logger.NewID()
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "geopreview",
		Component: "api",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl).With("instance", instance)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting geopreview",
		"addr", cfg.Addr,
		"version", Version,
		"basemap_storage", cfg.BasemapStorage,
		"events", cfg.Events.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Addr:  cfg.Metrics.Addr,
			Path:  cfg.Metrics.Path,
			Build: metrics.BuildFromEnv(Version),
		})
		if err := observability.Init(p.Registerer()); err != nil {
			appLog.Error("metrics registration failed", "err", err)
			return 1
		}
		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	}

	var (
		rc    *redisstore.Client
		ready []health.Check
	)
	if cfg.RedisAddr != "" {
		var err error
		rc, err = redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		ready = append(ready, health.Check{Name: "redis", Pinger: rc})
	}

	store, closeStore, err := buildStore(cfg, rc, appLog, instance)
	if err != nil {
		appLog.Error("basemap store setup failed", "err", err)
		return 1
	}
	defer closeStore()

	if cfg.Events.Enabled {
		ec := eventsConfig(cfg)
		// one group per replica: every replica must see every change
		ec.GroupID = fmt.Sprintf("%s-%s", ec.GroupID, instance)
		consumer := events.NewConsumer(ec, appLog, &zl, store)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("settings event consumer stopped", "err", err)
			}
		}()
	}

	var remote cache.Remote
	if rc != nil {
		remote = rc
	}
	previews := cache.NewPreview(cache.Config{
		Size:         cfg.PreviewCacheSize,
		TTL:          cfg.PreviewCacheTTL,
		PromoteAfter: cfg.PromoteAfter,
		HalfLife:     cfg.HotHalfLife,
	}, remote, appLog)
	go sweepLoop(ctx, previews, cfg.HotHalfLife)

	h := server.Handler(appLog, router.Deps{
		Logger:   appLog,
		Config:   cfg,
		Builder:  features.NewBuilder(appLog),
		Cache:    previews,
		Basemaps: store,
	}, ready...)

	if err := server.Run(ctx, cfg, appLog, h); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func sweepLoop(ctx context.Context, p *cache.Preview, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Sweep()
		}
	}
}

func eventsConfig(cfg config.Config) events.Config {
	ec := events.DefaultConfig()
	ec.Brokers = cfg.Events.Brokers
	ec.Topic = cfg.Events.Topic
	ec.GroupID = cfg.Events.GroupID
	ec.InitialOffsetOldest = cfg.Events.InitialOffsetOldest
	return ec
}

func buildStore(cfg config.Config, rc *redisstore.Client, log *slog.Logger, instance string) (*basemap.Store, func(), error) {
	var storage basemap.Storage = basemap.NewMemoryStorage()
	if cfg.BasemapStorage == config.StorageRedis {
		if rc == nil {
			return nil, nil, errors.New("BASEMAP_STORAGE=redis needs REDIS_ADDR")
		}
		storage = basemap.NewRedisStorage(rc)
	}

	var (
		notifier basemap.Notifier = events.NopPublisher{}
		closer                    = func() {}
	)
	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(eventsConfig(cfg), instance)
		if err != nil {
			return nil, nil, err
		}
		notifier = pub
		closer = func() { _ = pub.Close() }
	}

	store, err := basemap.NewStore(storage,
		basemap.WithNotifier(notifier),
		basemap.WithLogger(log),
		basemap.WithCacheSize(cfg.BasemapCache),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return store, closer, nil
}
