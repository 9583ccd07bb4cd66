package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/listings-api/internal/env"
)

const DefaultUpstreamBaseURL = "https://api.renet.app"

type UpstreamConfig struct {
	BaseURL string
	// Token is the server-side secret; PublicToken is the site-wide token
	// the front end also uses. Neither has a default.
	Token       string
	PublicToken string
	Timeout     time.Duration
	RPS         float64
	Burst       int
}

type AgencyConfig struct {
	ID     string
	Agents []string
}

type PagingConfig struct {
	DefaultPageSize  int
	FetchAllPageSize int
	FetchAllMaxPages int
	FetchAllBudget   time.Duration
}

type ReviewsConfig struct {
	PlacesAPIKey string
	PlaceID      string
	TTL          time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type HTTPConfig struct {
	Port               int
	AllowedOrigins     []string
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

type AppConfig struct {
	AppName       string
	HTTP          HTTPConfig
	Upstream      UpstreamConfig
	Agency        AgencyConfig
	Paging        PagingConfig
	FeaturedCount int
	Reviews       ReviewsConfig
	Redis         RedisConfig
	Log           LogConfig
	FluentBit     FluentBitConfig
}

// Load reads configuration from the environment after applying an optional
// .env file. A missing .env is not an error; a missing token is.
func Load(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &AppConfig{
		AppName: env.Get("APP_NAME", "listings-api"),
		HTTP: HTTPConfig{
			Port:               env.GetInt("PORT", 4002),
			AllowedOrigins:     env.List("CORS_ALLOWED_ORIGINS"),
			RateLimitPerMinute: env.GetInt("RATE_LIMIT_PER_MINUTE", 100),
			ReadTimeout:        env.GetDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       env.GetDuration("HTTP_WRITE_TIMEOUT", 45*time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL:     env.Get("RENET_BASE_URL", DefaultUpstreamBaseURL),
			Token:       os.Getenv("RENET_API_TOKEN"),
			PublicToken: os.Getenv("RENET_PUBLIC_TOKEN"),
			Timeout:     env.GetDuration("UPSTREAM_TIMEOUT", 8*time.Second),
			RPS:         env.GetFloat("UPSTREAM_RPS", 10),
			Burst:       env.GetInt("UPSTREAM_BURST", 20),
		},
		Agency: AgencyConfig{
			ID:     os.Getenv("AGENCY_ID"),
			Agents: env.List("AGENCY_AGENTS"),
		},
		Paging: PagingConfig{
			DefaultPageSize:  env.GetInt("DEFAULT_PAGE_SIZE", 12),
			FetchAllPageSize: env.GetInt("FETCH_ALL_PAGE_SIZE", 100),
			FetchAllMaxPages: env.GetInt("FETCH_ALL_MAX_PAGES", 20),
			FetchAllBudget:   env.GetDuration("FETCH_ALL_BUDGET", 20*time.Second),
		},
		FeaturedCount: env.GetInt("FEATURED_COUNT", 6),
		Reviews: ReviewsConfig{
			PlacesAPIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
			PlaceID:      os.Getenv("GOOGLE_PLACE_ID"),
			TTL:          env.GetDuration("REVIEWS_TTL", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       env.GetInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  env.Get("LOG_LEVEL", "info"),
			Format: env.Get("LOG_FORMAT", "text"),
		},
		FluentBit: FluentBitConfig{
			Enabled: env.GetBool("FLUENTBIT_ENABLED", false),
			Host:    os.Getenv("FLUENTBIT_HOST"),
			Port:    env.GetInt("FLUENTBIT_PORT", 24224),
			Level:   env.Get("FLUENTBIT_LOG_LEVEL", "info"),
		},
	}
	if cfg.FluentBit.Enabled && cfg.FluentBit.Host == "" {
		cfg.FluentBit.Enabled = false
	}

	if cfg.Upstream.Token == "" && cfg.Upstream.PublicToken == "" {
		return nil, errors.New("RENET_API_TOKEN or RENET_PUBLIC_TOKEN must be set")
	}
	if cfg.Reviews.PlacesAPIKey != "" && cfg.Reviews.PlaceID == "" {
		return nil, errors.New("GOOGLE_PLACE_ID is required when GOOGLE_PLACES_API_KEY is set")
	}
	return cfg, nil
}

// ReviewsEnabled reports whether Google reviews can be fetched at all.
func (c *AppConfig) ReviewsEnabled() bool {
	return c.Reviews.PlacesAPIKey != "" && c.Reviews.PlaceID != ""
}
