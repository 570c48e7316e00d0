package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"likethacheeseAPI/handlers"
	"likethacheeseAPI/internal/affiliate"
	"likethacheeseAPI/internal/notification"
	"likethacheeseAPI/middleware"
	"likethacheeseAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	leaderboardService  *services.LeaderboardService
	slotCallService     *services.SlotCallService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	middleware.InitModerators(strings.Split(os.Getenv("MODERATOR_IDS"), ","))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	rainbetURL := os.Getenv("RAINBET_API_URL")
	if rainbetURL == "" {
		log.Fatal("RAINBET_API_URL environment variable is not set")
	}
	feed := affiliate.NewClient(rainbetURL, os.Getenv("RAINBET_API_KEY"))

	featuredMarker := os.Getenv("FEATURED_MARKER")
	if featuredMarker == "" {
		featuredMarker = "5moking"
	}

	notificationService = services.NewNotificationService(dbPool)
	leaderboardService = services.NewLeaderboardService(feed, featuredMarker)
	slotCallService = services.NewSlotCallService(dbPool, notificationService)

	if err := slotCallService.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}
	if err := notificationService.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM push provider initialized successfully")
	}

	middleware.InitPrometheus()
	services.RegisterMetrics()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	slotCallHandler := handlers.NewSlotCallHandler(slotCallService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "likethacheese-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/leaderboard/top", leaderboardHandler.GetTopPlayers).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/slot-calls", slotCallHandler.SubmitSlotCall).Methods("POST")
	protected.HandleFunc("/slot-calls", slotCallHandler.ListSlotCalls).Methods("GET")
	protected.HandleFunc("/slot-calls/{id}/bonus", slotCallHandler.SubmitBonusCall).Methods("POST")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// -------------------------------------------------------------------------
	// MODERATOR ROUTES
	// -------------------------------------------------------------------------
	moderator := protected.PathPrefix("").Subrouter()
	moderator.Use(middleware.RequireModerator)

	moderator.HandleFunc("/slot-calls/{id}/accept", slotCallHandler.AcceptSlotCall).Methods("POST")
	moderator.HandleFunc("/slot-calls/{id}/reject", slotCallHandler.RejectSlotCall).Methods("POST")
	moderator.HandleFunc("/slot-calls/{id}/played", slotCallHandler.MarkSlotCallPlayed).Methods("POST")
	moderator.HandleFunc("/slot-calls/{id}/x250", slotCallHandler.ToggleX250).Methods("PUT")
	moderator.HandleFunc("/slot-calls/{id}", slotCallHandler.DeleteSlotCall).Methods("DELETE")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
