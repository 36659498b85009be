package config

import (
	"errors"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/mobileshop/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	APIBaseURL      string
	APITimeout      time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration

	StoreName        string
	DefaultCountry   string
	PaymentScriptURL string
	CookieSecure     bool
	TrustedOrigins   []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ViewCacheTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("env_file_not_loaded", "reason", err.Error())
	}

	cfg := &Config{
		ListenAddr: pkgconfig.EnvDefault("LISTEN_ADDR", ":3000"),
		LogLevel:   pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		APIBaseURL:      pkgconfig.EnvDefault("API_BASE_URL", ""),
		APITimeout:      pkgconfig.EnvDurationDefault("API_TIMEOUT", 10*time.Second),
		BreakerFailures: pkgconfig.EnvIntDefault("API_BREAKER_FAILURES", 5),
		BreakerCooldown: pkgconfig.EnvDurationDefault("API_BREAKER_COOLDOWN", 30*time.Second),

		StoreName:        pkgconfig.EnvDefault("STORE_NAME", "MobileShop"),
		DefaultCountry:   pkgconfig.EnvDefault("DEFAULT_COUNTRY", "IN"),
		PaymentScriptURL: pkgconfig.EnvDefault("PAYMENT_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
		CookieSecure:     pkgconfig.EnvBoolDefault("COOKIE_SECURE", false),
		TrustedOrigins:   pkgconfig.CSV(pkgconfig.EnvDefault("CSRF_TRUSTED_ORIGINS", "")),

		RedisAddr:     pkgconfig.EnvDefault("REDIS_ADDR", ""),
		RedisPassword: pkgconfig.EnvDefault("REDIS_PASSWORD", ""),
		RedisDB:       pkgconfig.EnvIntDefault("REDIS_DB", 0),
		ViewCacheTTL:  pkgconfig.EnvDurationDefault("VIEW_CACHE_TTL", 30*time.Second),

		KafkaBrokers: pkgconfig.CSV(pkgconfig.EnvDefault("KAFKA_BROKERS", "")),
		KafkaTopic:   pkgconfig.EnvDefault("KAFKA_TOPIC", "storefront_events"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if err := pkgconfig.MustNonEmpty(c.APIBaseURL, "API_BASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("API_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
