package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calixoAPI/handlers"
	"calixoAPI/internal/db"
	"calixoAPI/internal/notification"
	"calixoAPI/internal/workers"
	"calixoAPI/middleware"
	"calixoAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	challengeService    *services.ChallengeService
	feedService         *services.FeedService
	storeService        *services.StoreService
	transactionService  *services.TransactionService
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

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	dbPool, err = db.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	log.Println("Successfully connected to Postgres")

	if err := db.RunMigrations(dbURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool, notificationService)
	challengeService = services.NewChallengeService(dbPool, notificationService)
	feedService = services.NewFeedService(dbPool, notificationService)
	storeService = services.NewStoreService(dbPool, notificationService)
	transactionService = services.NewTransactionService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	feedHandler := handlers.NewFeedHandler(feedService)
	storeHandler := handlers.NewStoreHandler(storeService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	sweeperStop := make(chan struct{})
	workers.StartSweeper(challengeService, sweeperStop)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
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
		w.Write([]byte(`{"status": "healthy", "service": "calixo-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetMe).Methods("GET")
	protected.HandleFunc("/user/profile", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/follow", userHandler.Follow).Methods("POST")
	protected.HandleFunc("/user/follow", userHandler.Unfollow).Methods("DELETE")
	protected.HandleFunc("/user/followers", userHandler.GetFollowers).Methods("GET")
	protected.HandleFunc("/user/following", userHandler.GetFollowing).Methods("GET")
	protected.HandleFunc("/user/leaderboard/global", userHandler.GetGlobalLeaderboard).Methods("GET")
	protected.HandleFunc("/user/leaderboard/following", userHandler.GetFollowingLeaderboard).Methods("GET")
	protected.HandleFunc("/user/transactions", transactionHandler.GetLedger).Methods("GET")

	protected.HandleFunc("/challenges/board", challengeHandler.GetBoard).Methods("GET")
	protected.HandleFunc("/challenges/start", challengeHandler.Start).Methods("POST")
	protected.HandleFunc("/challenges/finish", challengeHandler.Finish).Methods("POST")
	protected.HandleFunc("/challenges/claim", challengeHandler.Claim).Methods("POST")
	protected.HandleFunc("/challenges/complete", challengeHandler.Share).Methods("POST")
	protected.HandleFunc("/challenges/dismiss-share", challengeHandler.DismissShare).Methods("POST")
	protected.HandleFunc("/challenges/cancel", challengeHandler.Cancel).Methods("POST")
	protected.HandleFunc("/challenges/history", challengeHandler.GetHistory).Methods("GET")

	protected.HandleFunc("/feed", feedHandler.GetFeed).Methods("GET")
	protected.HandleFunc("/feed/my-posts", feedHandler.GetMyPosts).Methods("GET")
	protected.HandleFunc("/feed/like", feedHandler.ToggleLike).Methods("POST")

	protected.HandleFunc("/store", storeHandler.GetStore).Methods("GET")
	protected.HandleFunc("/store/purchase", storeHandler.PurchaseCoupon).Methods("POST")
	protected.HandleFunc("/store/my-coupons", storeHandler.GetMyCoupons).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
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
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Println("Shutting down server...")

	close(sweeperStop)
	notificationService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
