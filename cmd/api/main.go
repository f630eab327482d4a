package main

import (
	"context"
	"errors"
	"expvar"
	"io/fs"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storefront/internal/auth"
	"storefront/internal/db"
	"storefront/internal/domain/carts"
	"storefront/internal/domain/catalog"
	"storefront/internal/domain/storage"
	"storefront/internal/ratelimiter"
	"storefront/internal/slot"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	if os.Getenv("ENV") == "development" {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core).Sugar(), nil
}

var version = "0.3.0"

func main() {
	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatalw("loading .env", "error", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal(err)
	}

	// Prices go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// Database
	var pool *pgxpool.Pool
	if cfg.db.addr != "" {
		pool, err = db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
		if err != nil {
			logger.Fatal(err)
		}
		defer pool.Close()
		logger.Info("database connection pool established")
	}

	// Redis
	var rdb *redis.Client
	if cfg.redis.addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = slot.NewRedisClient(ctx, cfg.redis.addr, cfg.redis.pass)
		cancel()
		if err != nil {
			logger.Fatal(err)
		}
		defer rdb.Close()
		logger.Info("redis connection established")
	}

	store, err := storage.NewContainer(storage.Backends{
		Pool:        pool,
		Redis:       rdb,
		SlotTTL:     cfg.redis.slotTTL,
		CatalogFile: cfg.catalog.file,
	})
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("storage ready", "catalog", store.CatalogBackend, "carts", store.SlotBackend)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	defer rateLimiter.Stop()

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		catalog:       catalog.NewFeed(store.Catalog, cfg.catalog.refreshInterval, logger),
		carts:         carts.NewSessions(store.Slots, logger),
		authenticator: auth.NewJWTAuthenticator(cfg.auth.token.secret, cfg.auth.token.iss),
		rateLimiter:   rateLimiter,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.catalog.Run(ctx)

	jobs, err := app.scheduleJobs(ctx)
	if err != nil {
		logger.Fatal(err)
	}
	jobs.Start()
	defer jobs.Stop()

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	if pool != nil {
		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]int64{
				"total_conns":    int64(s.TotalConns()),
				"idle_conns":     int64(s.IdleConns()),
				"acquired_conns": int64(s.AcquiredConns()),
				"acquire_count":  s.AcquireCount(),
			}
		}))
	}
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("open_carts", expvar.Func(func() any {
		return app.carts.Len()
	}))
	expvar.Publish("catalog", expvar.Func(func() any {
		snap := app.catalog.Snapshot()
		return map[string]any{
			"products":   len(snap.Products),
			"categories": len(snap.Categories),
			"fetched_at": snap.FetchedAt,
		}
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Fatal(err)
	}
}
