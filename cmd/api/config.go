package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/catalog"
	"storefront/internal/ratelimiter"
	"storefront/internal/recommend"
)

type config struct {
	addr        string
	env         string
	apiURL      string
	db          dbConfig
	redis       redisConfig
	catalog     catalogConfig
	recommend   recommend.Config
	auth        authConfig
	rateLimiter ratelimiter.Config
	sessionIdle time.Duration
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr    string
	pass    string
	slotTTL time.Duration
}

type catalogConfig struct {
	file            string
	refreshInterval time.Duration
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type basicConfig struct {
	user     string
	passHash string
}

type tokenConfig struct {
	secret string
	iss    string
	exp    time.Duration
}

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() (ratelimiter.Config, error) {
	requests, err := envInt("RATELIMITER_REQUESTS_COUNT", 200)
	if err != nil {
		return ratelimiter.Config{}, err
	}
	enabled, err := envBool("RATE_LIMITER_ENABLED", false)
	if err != nil {
		return ratelimiter.Config{}, err
	}
	return ratelimiter.Config{
		RequestsPerTimeFrame: requests,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}, nil
}

func loadConfig() (config, error) {
	cfg := config{
		addr:   envString("ADDR", ":8080"),
		env:    envString("ENV", "development"),
		apiURL: envString("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxIdleTime: envString("DB_MAX_IDLE_TIME", "15m"),
		},
		redis: redisConfig{
			addr: os.Getenv("REDIS_ADDR"),
			pass: os.Getenv("REDIS_PASS"),
		},
		catalog: catalogConfig{
			file: os.Getenv("CATALOG_FILE"),
		},
		auth: authConfig{
			basic: basicConfig{
				user:     os.Getenv("AUTH_BASIC_USER"),
				passHash: os.Getenv("AUTH_BASIC_PASS_HASH"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				iss:    envString("AUTH_TOKEN_ISS", "storefront"),
				exp:    time.Hour * 24 * 30,
			},
		},
	}

	maxConns, err := envInt("DB_MAX_CONNS", 10)
	if err != nil {
		return cfg, err
	}
	cfg.db.maxConns = int32(maxConns)

	if cfg.redis.slotTTL, err = envDuration("CART_SLOT_TTL", 30*24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.catalog.refreshInterval, err = envDuration("CATALOG_REFRESH_INTERVAL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.sessionIdle, err = envDuration("CART_SESSION_IDLE", 30*time.Minute); err != nil {
		return cfg, err
	}

	if cfg.recommend.Mode, err = recommend.ParseMode(os.Getenv("RECOMMENDATION_MODE")); err != nil {
		return cfg, err
	}
	for _, id := range strings.Split(os.Getenv("RECOMMENDATION_CATEGORIES"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.recommend.CategoryIDs = append(cfg.recommend.CategoryIDs, catalog.ID(id))
		}
	}

	if cfg.rateLimiter, err = LoadRateLimiterConfig(); err != nil {
		return cfg, err
	}

	if cfg.auth.token.secret == "" {
		return cfg, fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}
