package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/pethub/internal/auth"
	"github.com/geocoder89/pethub/internal/blob/bolt"
	"github.com/geocoder89/pethub/internal/blob/gcs"
	"github.com/geocoder89/pethub/internal/cache"
	"github.com/geocoder89/pethub/internal/config"
	"github.com/geocoder89/pethub/internal/db"
	httpx "github.com/geocoder89/pethub/internal/http"
	"github.com/geocoder89/pethub/internal/http/handlers"
	"github.com/geocoder89/pethub/internal/observability"
	"github.com/geocoder89/pethub/internal/redisclient"
	"github.com/geocoder89/pethub/internal/repo/postgres"
	"github.com/geocoder89/pethub/internal/repo/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// buildDeps constructs every process-scoped dependency. The returned
// cleanup closes them in reverse order.
func buildDeps(ctx context.Context, cfg config.Config, log *slog.Logger) (httpx.Deps, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close dependency", "err", err)
			}
		}
	}

	fail := func(err error) (httpx.Deps, func(), error) {
		cleanup()
		return httpx.Deps{}, func() {}, err
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		Prom:     prom,
		Registry: reg,
		Ready:    map[string]handlers.Pinger{},
	}

	// relational store
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { pool.Close(); return nil })

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, log); err != nil {
				return fail(err)
			}
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Pets = postgres.NewPetsRepo(pool, prom)
		deps.Ready["postgres"] = pool

	case config.DriverSQLite:
		st, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, st.Close)

		deps.Users = st
		deps.Pets = st.Pets()
		deps.Ready["sqlite"] = st

	default:
		return fail(fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver))
	}

	// blob store
	switch cfg.BlobBackend {
	case config.BlobBackendBolt:
		store, err := bolt.New(cfg.BoltPath, cfg.PublicBaseURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, store.Close)

		deps.Blobs = store
		deps.Uploads = store

	case config.BlobBackendGCS:
		store, err := gcs.New(ctx, gcs.Config{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, store.Close)

		deps.Blobs = store

	default:
		return fail(fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend))
	}

	// listing cache
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, rc.Close)

		if err := rc.Ping(ctx); err != nil {
			// the cache is optional; readiness reports it until it recovers
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}

		deps.ListCache = cache.NewRedis(rc.Raw(), cfg.CacheTTL)
		deps.Ready["redis"] = rc
	} else if cfg.CacheLocal {
		// invalidation stays inside this process
		deps.ListCache = cache.NewMemory(cfg.CacheTTL)
	} else {
		log.Info("listing cache disabled", "reason", "no REDIS_ADDR and CACHE_LOCAL is off")
	}

	if deps.Users == nil || deps.Pets == nil || deps.Blobs == nil {
		return fail(errors.New("incomplete dependency graph"))
	}

	return deps, cleanup, nil
}
