package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/procurehq/vendorscout/internal/archive"
	"github.com/procurehq/vendorscout/internal/archive/jsonbackend"
	"github.com/procurehq/vendorscout/internal/archive/postgres"
	"github.com/procurehq/vendorscout/internal/archive/sqlite"
	"github.com/procurehq/vendorscout/internal/cache"
	"github.com/procurehq/vendorscout/internal/cache/memcache"
	"github.com/procurehq/vendorscout/internal/cache/rediscache"
	"github.com/procurehq/vendorscout/internal/config"
	"github.com/procurehq/vendorscout/internal/contact"
	"github.com/procurehq/vendorscout/internal/discovery"
	"github.com/procurehq/vendorscout/internal/fetch"
	"github.com/procurehq/vendorscout/internal/fingerprint"
	"github.com/procurehq/vendorscout/internal/pipeline"
	"github.com/procurehq/vendorscout/internal/search"
	"github.com/procurehq/vendorscout/pkg/proxy"
	"github.com/procurehq/vendorscout/pkg/ratelimit"
	"github.com/procurehq/vendorscout/pkg/useragent"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vendorscout",
	Short: "Discover and rank US vendor candidates for procurement requests",
	Long: `Vendorscout turns a product query plus required specs into a ranked,
paginated list of US vendor candidates. Candidate pages are fetched with a
browser-like signature, extracted, validated against the spec list and
ranked; results are cached per request fingerprint.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// app holds everything a command needs, with teardown in Close.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *discovery.Service
	store   cache.Store
	archive archive.Backend
}

func (a *app) Close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.logger.Warn("closing archive", "err", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing cache store", "err", err)
		}
	}
}

// buildApp assembles the full pipeline from configuration.
func buildApp(ctx context.Context) (*app, error) {
	logger := newLogger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	reg := cfg.Registry()
	limiter := ratelimit.New(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Jitter)
	uaPool := useragent.NewPool(cfg.Fetch.UserAgents)

	var proxyPool *proxy.Pool
	if len(cfg.Fetch.Proxies) > 0 {
		proxyPool = proxy.NewPool(proxy.Config{})
		if err := proxyPool.Add(cfg.Fetch.Proxies...); err != nil {
			return nil, fmt.Errorf("invalid proxy configuration: %w", err)
		}
	}

	fetcher, err := fetch.New(fetch.Config{
		Timeout:       cfg.Fetch.Timeout,
		MaxRedirects:  cfg.Fetch.MaxRedirects,
		UseCookieJar:  true,
		Fingerprint:   fingerprint.Profile(cfg.Fetch.Fingerprint),
		UAPool:        uaPool,
		ProxyPool:     proxyPool,
		Limiter:       limiter,
		RespectRobots: cfg.Fetch.RespectRobots,
		RobotsAgent:   "vendorscout",
	})
	if err != nil {
		return nil, fmt.Errorf("building fetcher: %w", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	arch, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := search.NewSitemapProvider(fetcher, reg, logger)
	retriever := pipeline.NewRetriever(provider, reg, logger)

	extractor := pipeline.NewExtractor(fetcher, reg, []pipeline.Parser{pipeline.JSONLDParser{}}, logger)
	extractor.Strict = cfg.Discovery.StrictMode

	scanner := contact.NewScanner(fetcher, limiter, logger)
	validator := pipeline.NewValidator(reg, scanner, logger)
	validator.SpecMatchRatio = cfg.Discovery.MinSpecMatchRatio

	ranker := pipeline.NewRanker(reg)

	svc := discovery.New(retriever, extractor, validator, ranker, store, arch, discovery.Options{
		DefaultTopN: cfg.Discovery.TopN,
		MaxPageSize: cfg.Discovery.MaxPageSize,
		Concurrency: cfg.Discovery.Concurrency,
		TTL:         cfg.Discovery.TTL,
	}, logger)

	return &app{cfg: cfg, logger: logger, service: svc, store: store, archive: arch}, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		store, err := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, nil
	default:
		return memcache.New(), nil
	}
}

func buildArchive(ctx context.Context, cfg *config.Config) (archive.Backend, error) {
	switch cfg.Archive.Backend {
	case "sqlite":
		return sqlite.New(cfg.Archive.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.Archive.DSN)
	case "json":
		return jsonbackend.New(cfg.Archive.DSN)
	default:
		return nil, nil
	}
}
