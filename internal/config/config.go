package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	AllowOrigins      string
	DatabaseURL       string
	DatabasePool      PoolConfig
	RedisURL          string
	NATSURL           string
	EventSubject      string
	JWTSecret         string
	CatalogCacheTTL   time.Duration
	DashboardCacheTTL time.Duration
	OTPTTL            time.Duration
	RateLimitMax      int
	RateLimitWindow   time.Duration
}

// PoolConfig bounds the database connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "GEMA LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("http.allow_origins", "*")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("events.subject", "lms.progress")
	v.SetDefault("catalog.cache_ttl", "10m")
	v.SetDefault("dashboard.cache_ttl", "1m")
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	catalogTTL, err := parseDuration(v, "catalog.cache_ttl", 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid catalog cache ttl: %w", err)
	}

	dashboardTTL, err := parseDuration(v, "dashboard.cache_ttl", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	otpTTL, err := parseDuration(v, "otp.ttl", 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid otp ttl: %w", err)
	}

	connLifetime, err := parseDuration(v, "database.conn_max_lifetime", 30*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	window, err := parseDuration(v, "rate_limit.window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		AllowOrigins:      v.GetString("http.allow_origins"),
		DatabaseURL:       v.GetString("database.url"),
		DatabasePool: PoolConfig{
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connLifetime,
		},
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventSubject:      v.GetString("events.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		CatalogCacheTTL:   catalogTTL,
		DashboardCacheTTL: dashboardTTL,
		OTPTTL:            otpTTL,
		RateLimitMax:      v.GetInt("rate_limit.max"),
		RateLimitWindow:   window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	if cfg.DatabasePool.MaxIdleConns > cfg.DatabasePool.MaxOpenConns && cfg.DatabasePool.MaxOpenConns > 0 {
		cfg.DatabasePool.MaxIdleConns = cfg.DatabasePool.MaxOpenConns
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	return time.ParseDuration(raw)
}
