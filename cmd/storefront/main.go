package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/mw"
	"storefront/internal/notify"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/worker"
)

func main() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var (
		orders   store.OrderStore
		products store.ProductStore
		settings store.SettingsStore
	)
	if cfg.MemoryMode {
		slog.Warn("running on in-memory stores, nothing survives restart")
		orders = store.NewMemOrderStore()
		products = store.NewMemProductStore()
		settings = store.NewMemSettingsStore(cfg.CartCeiling)
	} else {
		db, err := database.NewDB(cfg.DatabaseURI)
		if err != nil {
			slog.Error("failed to connect to DB", "error", err)
			os.Exit(1)
		}
		defer database.CloseDB(context.Background(), db)

		if err := database.InitSchema(db); err != nil {
			slog.Error("failed to init DB schema", "error", err)
			os.Exit(1)
		}

		orders = store.NewPGOrderStore(db)
		products = store.NewPGProductStore(db)
		settings = store.NewPGSettingsStore(db, cfg.CartCeiling)
	}

	// Notification sink: NATS when configured, else HTTP relay, else noop.
	var notifier notify.Notifier = notify.Noop{}
	switch {
	case cfg.Notify.NATSURL != "":
		sink, err := notify.NewNATSSink(cfg.Notify.NATSURL, cfg.Notify.NATSSubject, cfg.Notify.Secret)
		if err != nil {
			slog.Error("failed to connect notification sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		notifier = sink
	case cfg.Notify.URL != "":
		notifier = notify.NewHTTPSink(cfg.Notify.URL, cfg.Notify.Secret)
	default:
		slog.Warn("no notification sink configured, order events will be dropped")
	}

	m := metrics.New()

	gw := gateway.New(gateway.Config{
		ShopID:      cfg.Gateway.ShopID,
		Secret:      cfg.Gateway.Secret,
		BaseURL:     cfg.Gateway.BaseURL,
		SuccessURL:  cfg.Gateway.SuccessURL,
		FailURL:     cfg.Gateway.FailURL,
		NotifyURL:   cfg.Gateway.NotifyURL,
		Description: cfg.Gateway.Description,
	})
	if !gw.Configured() {
		slog.Warn("payment gateway not configured, payment endpoints will refuse")
	}

	catalog := service.NewCatalog(products)
	engine := service.NewLifecycle(orders, settings, catalog, gw, notifier, m)

	sweeper := worker.NewSweeper(orders, m, cfg.SweepInterval, cfg.SweepMaxAge)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.SecretHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Public routes
	r.Get("/api/products", handler.ListProductsHandler(catalog))
	r.Post("/api/orders", handler.CreateOrderHandler(engine))
	r.Post("/api/orders/email", handler.SubmitEmailHandler(engine))
	r.Post("/api/orders/code", handler.SubmitCodeHandler(engine))
	r.Get("/api/orders/{id}", handler.GetOrderHandler(engine))
	r.Post("/api/payment", handler.CheckoutHandler(engine))
	r.Post("/api/payment/webhook", handler.WebhookHandler(engine, gw))
	r.Post("/api/payment/{id}", handler.InitiatePaymentHandler(engine))
	r.Post("/api/admin/login", handler.AdminLoginHandler(cfg.AdminSecret))

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AdminAuth(cfg.AdminSecret))

		r.Get("/api/admin/orders", handler.AdminListOrdersHandler(engine))
		r.Get("/api/admin/orders/export", handler.AdminExportOrdersHandler(engine))
		r.Post("/api/admin/orders/{id}/status", handler.AdminSetStatusHandler(engine))
		r.Post("/api/admin/orders/{id}/comment", handler.AdminCommentHandler(engine))

		r.Post("/api/admin/products", handler.CreateProductHandler(products))
		r.Put("/api/admin/products/{id}", handler.UpdateProductHandler(products))
		r.Delete("/api/admin/products/{id}", handler.DeleteProductHandler(products))

		r.Get("/api/admin/settings", handler.AdminGetSettingsHandler(settings))
		r.Put("/api/admin/settings", handler.AdminSetSettingsHandler(settings))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop sweeper
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
