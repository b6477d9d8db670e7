package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/conduitapp/conduit-api/internal/auth"
	"github.com/conduitapp/conduit-api/internal/config"
	"github.com/conduitapp/conduit-api/internal/database"
	"github.com/conduitapp/conduit-api/internal/handlers"
	"github.com/conduitapp/conduit-api/internal/logger"
	"github.com/conduitapp/conduit-api/internal/metrics"
	"github.com/conduitapp/conduit-api/internal/middleware"
	"github.com/conduitapp/conduit-api/internal/telemetry"
	"github.com/conduitapp/conduit-api/internal/token"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("token_debug_mint", cfg.TokenDebugMint),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	otelActive := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "conduit-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				otelActive = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
	}
	zapLogger.Info("migrations_applied")

	// Redis for rate limiting
	redisClient, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Token key pair is generated fresh at startup; every token expires
	// with the process.
	keys, err := token.NewKeyMaterial()
	if err != nil {
		zapLogger.Fatal("failed_to_generate_key_pair", zap.Error(err))
	}
	codec := token.NewCodec(keys)
	zapLogger.Info("key_pair_generated")

	// Repositories, identity resolution and metrics
	userRepo := database.NewUserRepository(db)
	followerRepo := database.NewFollowerRepository(db)
	hasher := auth.BcryptHasher{}
	resolver := auth.NewResolver(codec, userRepo, hasher)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Handlers
	userHandler := handlers.NewUserHandler(userRepo, resolver, codec, hasher, collector, zapLogger)
	profileHandler := handlers.NewProfileHandler(userRepo, followerRepo, zapLogger)
	tokenHandler := handlers.NewTokenHandler(codec, collector, zapLogger)
	healthChecker := handlers.NewHealthChecker(db)

	// Router and middleware chain
	r := mux.NewRouter()

	if otelActive {
		r.Use(otelmux.Middleware("conduit-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.Logging(zapLogger))
	// The authentication gate runs after logging so rejections are logged
	// with the rest of the request stream.
	r.Use(middleware.Auth(middleware.DefaultPolicy(), resolver, zapLogger, collector))

	// Public infrastructure routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler(registry)).Methods("GET")

	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	openAPIHandler := handlers.NewOpenAPIHandler(openAPIPath)
	openAPIHandler.RegisterRoutes(r)

	// All API routes share the Redis-backed rate limit. The OpenAPI
	// document is registered on the root router above, so it matches
	// before this subrouter and skips the limiter.
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(rateLimitMW)

	apiRouter.HandleFunc("/users", userHandler.Register).Methods("POST")
	apiRouter.HandleFunc("/users/login", userHandler.Login).Methods("POST")
	apiRouter.HandleFunc("/users", userHandler.GetCurrentUser).Methods("GET")
	apiRouter.HandleFunc("/users", userHandler.UpdateUser).Methods("PUT")

	apiRouter.HandleFunc("/profiles/{username}", profileHandler.GetProfile).Methods("GET")
	apiRouter.HandleFunc("/profiles/{username}/follow", profileHandler.Follow).Methods("POST")
	apiRouter.HandleFunc("/profiles/{username}/follow", profileHandler.Unfollow).Methods("DELETE")

	if cfg.TokenDebugMint {
		mintRouter := apiRouter.PathPrefix("/token").Subrouter()
		mintRouter.Use(middleware.RequireRole(auth.RoleAdmin, zapLogger))
		mintRouter.HandleFunc("", tokenHandler.Mint).Methods("GET")
		zapLogger.Warn("token_debug_mint_enabled")
	}

	// Catch-all OPTIONS handler for preflight requests; the CORS
	// middleware sets the headers before this runs.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
