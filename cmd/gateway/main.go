package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_shop/internal/backend"
	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/checkout"
	"github.com/fjod/go_shop/internal/checkout/journal"
	h "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/session"
	"github.com/fjod/go_shop/internal/telemetry"
)

type Config struct {
	HTTPPort        string
	ShopAPIURL      string
	ProcessorURL    string
	RedisAddr       string
	JournalDBPath   string
	MigrationsPath  string
	OTLPEndpoint    string
	BackendTimeout  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ShopAPIURL:      getEnv("SHOP_API_URL", "http://localhost:8000/api/v1"),
		ProcessorURL:    getEnv("PROCESSOR_URL", "http://localhost:9000"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		JournalDBPath:   getEnv("JOURNAL_DB_PATH", "./checkout.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/checkout/journal/migrations"),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		BackendTimeout:  15 * time.Second,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	telemetry.InitLogger()

	ctx := context.Background()
	shutdownTracer, err := telemetry.SetupTracer(ctx, "shop-gateway", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	defer redisClient.Close()

	store := session.NewRedisStore(redisClient)

	client := backend.New(backend.Config{
		BaseURL: cfg.ShopAPIURL,
		Timeout: cfg.BackendTimeout,
	}, store)

	carts := cart.NewManager(client)

	repo, err := journal.NewRepository(cfg.JournalDBPath)
	if err != nil {
		log.Fatalf("failed to open checkout journal: %v", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to migrate checkout journal: %v", err)
	}

	processor := payment.NewProcessorClient(payment.ProcessorConfig{
		BaseURL: cfg.ProcessorURL,
	})

	checkouts := checkout.NewOrchestrator(client, processor, repo)

	authHandler := h.NewAuthHandler(client, store, carts, checkouts)
	cartHandler := h.NewCartHandler(carts)
	checkoutHandler := h.NewCheckoutHandler(carts, checkouts)
	ordersHandler := h.NewOrdersHandler(client)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.WithSession)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Patch("/me", authHandler.UpdateProfile)
			r.Post("/me/change-password", authHandler.ChangePassword)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{itemID}", cartHandler.UpdateItem)
			r.Delete("/", cartHandler.Clear)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Begin)
			r.Get("/", checkoutHandler.Status)
			r.Post("/confirm", checkoutHandler.Confirm)
			r.Get("/return", checkoutHandler.Return)
			r.Get("/order", checkoutHandler.Order)
			r.Delete("/", checkoutHandler.Reset)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.List)
			r.Get("/{orderID}", ordersHandler.Get)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("gateway starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
