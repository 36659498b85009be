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

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/cache"
	"github.com/Skotchmaster/mobileshop/internal/cart"
	"github.com/Skotchmaster/mobileshop/internal/catalog"
	"github.com/Skotchmaster/mobileshop/internal/checkout"
	"github.com/Skotchmaster/mobileshop/internal/config"
	"github.com/Skotchmaster/mobileshop/internal/events"
	"github.com/Skotchmaster/mobileshop/internal/handlers"
	"github.com/Skotchmaster/mobileshop/internal/orders"
	"github.com/Skotchmaster/mobileshop/internal/payment"
	"github.com/Skotchmaster/mobileshop/internal/session"
	httpserver "github.com/Skotchmaster/mobileshop/internal/transport/http"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
	"github.com/Skotchmaster/mobileshop/pkg/middleware/csrf"
)

// eventQueueSize bounds the events waiting for the broker.
const eventQueueSize = 256

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("storefront_failed", "error", err)
		os.Exit(1)
	}
}

// run returns only after every dependency it opened has been closed.
func run(cfg *config.Config, logger *slog.Logger) error {
	renderer, err := view.New()
	if err != nil {
		return fmt.Errorf("templates invalid: %w", err)
	}

	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		apiclient.WithBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
	)

	checks := map[string]func(context.Context) error{}

	var store cache.Store
	if cfg.RedisAddr != "" {
		client, err := cache.DialRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer client.Close()
			store = cache.NewRedis(client, "storefront:")
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			logger.Info("redis_connected", "addr", cfg.RedisAddr)
		}
	}
	if store == nil {
		mem := cache.NewMemory(time.Minute)
		defer mem.Close()
		store = mem
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		buffered := events.NewBuffered(kp, eventQueueSize, logger)
		defer func() {
			buffered.Close()
			if err := kp.Close(); err != nil {
				logger.Warn("kafka_close_failed", "error", err)
			}
		}()
		publisher = buffered
		logger.Info("events_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	views := cache.NewViewCache(store, cfg.ViewCacheTTL)
	auth := session.NewManager(api)
	carts := cart.NewService(api)
	orderSvc := orders.NewService(api, auth)
	pages := handlers.Pages{StoreName: cfg.StoreName}

	orchestrator := checkout.New(checkout.Deps{
		API:            api,
		Carts:          carts,
		Views:          views,
		Guard:          checkout.NewGuard(store, checkout.DefaultGuardTTL),
		Events:         publisher,
		DefaultCountry: cfg.DefaultCountry,
	})

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	csrfCfg.AllowedOrigins = cfg.TrustedOrigins
	csrfCfg.SkipPaths = []string{"/health/live", "/health/ready"}

	e := httpserver.New(&httpserver.Deps{
		Logger:   logger,
		Renderer: renderer,
		Binder:   session.Binder{SecureCookies: cfg.CookieSecure},
		CSRF:     csrfCfg,

		Health:   &handlers.HealthHandler{Checks: checks},
		Products: &handlers.ProductHandler{Catalog: catalog.NewService(api), Pages: pages},
		Carts:    &handlers.CartHandler{Carts: carts, Views: views, Events: publisher, Pages: pages},
		Checkout: &handlers.CheckoutHandler{
			Checkout:       orchestrator,
			Carts:          carts,
			Views:          views,
			DefaultCountry: cfg.DefaultCountry,
			Pages:          pages,
		},
		Payments: &handlers.PaymentHandler{
			Payments:  payment.NewService(api),
			Registry:  payment.NewRegistry(payment.DefaultPageTTL),
			Events:    publisher,
			ScriptURL: cfg.PaymentScriptURL,
			Pages:     pages,
		},
		Orders: &handlers.OrderHandler{Orders: orderSvc, Pages: pages},
		Auth:   &handlers.AuthHandler{Auth: auth, Orders: orderSvc, Pages: pages},
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server_started", "addr", cfg.ListenAddr, "api", cfg.APIBaseURL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(srv, quit, logger)
}

// serve runs srv until it fails or quit fires, then shuts it down gracefully.
func serve(srv *http.Server, quit <-chan os.Signal, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	logger.Info("shutdown_complete")
	return nil
}
