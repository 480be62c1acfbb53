package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/api/handlers"
	"github.com/lncproducciones/eshops-cart/internal/api/middleware"
	"github.com/lncproducciones/eshops-cart/internal/config"
	"github.com/lncproducciones/eshops-cart/internal/health"
	"github.com/lncproducciones/eshops-cart/internal/metrics"
	"github.com/lncproducciones/eshops-cart/internal/ratelimit"
	service "github.com/lncproducciones/eshops-cart/internal/services"
	"github.com/lncproducciones/eshops-cart/internal/storage"
	"github.com/lncproducciones/eshops-cart/internal/tracing"
	"github.com/lncproducciones/eshops-cart/pkg/eshops"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Tracing setup
	shutdownTracing, err := tracing.Init(ctx, &cfg.OTel)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
		}
	}()

	// Session storage setup
	store, limiter, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the session storage", slog.String("driver", cfg.Storage.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("⚠️ Error closing session storage", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Session storage closed")
		}
	}()

	// Remote catalog setup
	catalog := eshops.NewClient(eshops.Config{
		APIRoot: cfg.Catalog.APIRoot,
		APIID:   cfg.Catalog.APIID,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
	})

	if status, err := catalog.Probe(ctx); err != nil {
		slog.Warn("⚠️ Catalog unreachable, running offline", slog.String("version", status.Version), slog.String("error", err.Error()))
	} else {
		slog.Info("Catalog online", slog.String("version", status.Version))
	}

	if cfg.Catalog.ProbeInterval > 0 {
		go catalog.Watch(ctx, cfg.Catalog.ProbeInterval)
	}

	cartService := service.NewCartService(store, catalog, cfg.Storage.SessionTTL)
	cartHandler := handlers.NewCartHandler(cartService)
	catalogHandler := handlers.NewCatalogHandler(cartService)
	sessions := middleware.NewSessionMiddleware([]byte(cfg.Security.SessionKey), cfg.Security.SessionExpiry)

	healthHandler, err := health.NewHealthHandler(cfg, catalog)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("driver", cfg.Storage.Driver), slog.String("version", health.ComponentVersion))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.Handle("GET /api/v1/cart", sessions.Session(cartHandler.GetCart()))
	routerMux.Handle("POST /api/v1/cart/items", sessions.Session(cartHandler.AddItem()))
	routerMux.Handle("POST /api/v1/cart/products/{id}", sessions.Session(middleware.RateLimit(limiter, cartHandler.AddItemByID())))
	routerMux.Handle("PUT /api/v1/cart/items/{productId}", sessions.Session(cartHandler.UpdateQuantity()))
	routerMux.Handle("DELETE /api/v1/cart/items/{productId}", sessions.Session(cartHandler.RemoveItem()))
	routerMux.Handle("DELETE /api/v1/cart/items", sessions.Session(cartHandler.ClearCart()))
	routerMux.Handle("PUT /api/v1/cart/discount", sessions.Session(cartHandler.SetDiscount()))
	routerMux.Handle("PUT /api/v1/cart/customer", sessions.Session(cartHandler.SetCustomer()))
	routerMux.Handle("DELETE /api/v1/cart/customer", sessions.Session(cartHandler.ClearCustomer()))
	routerMux.Handle("POST /api/v1/cart/checkout", sessions.Session(middleware.RateLimit(limiter, cartHandler.Checkout())))
	routerMux.HandleFunc("GET /api/v1/catalog/status", catalogHandler.Status())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining, metrics must wrap the mux directly to see the route pattern
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "eshops-cart")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() { // Starts the HTTP server in a new goroutine so it doesn't block the main thread.

		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// stops the catalog watcher
	stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

}

// openStorage returns the session storage for the configured driver. The
// catalog call limiter needs redis and is nil for the other drivers.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, middleware.Limiter, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := storage.OpenPostgres(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewPostgresStorage(ctx, db, cfg.Storage.SessionTTL)
		return store, nil, err
	case config.StorageMemory:
		slog.Warn("⚠️ Using in-memory session storage, carts are lost on restart")
		return storage.NewMemoryStorage(cfg.Storage.SessionTTL), nil, nil
	default:
		client, err := storage.NewRedisClient(&cfg.RedisConnect)
		if err != nil {
			return nil, nil, err
		}

		var limiter middleware.Limiter
		if cfg.RateLimit.MaxRequests > 0 {
			limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit)
		}

		return storage.NewRedisStorage(client, cfg.Storage.SessionTTL), limiter, nil
	}
}
