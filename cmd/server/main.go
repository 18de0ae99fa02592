package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/stewardbooks/backend/docs"
	"github.com/stewardbooks/backend/internal/audit"
	"github.com/stewardbooks/backend/internal/config"
	"github.com/stewardbooks/backend/internal/database"
	"github.com/stewardbooks/backend/internal/handlers"
	"github.com/stewardbooks/backend/internal/logger"
	mW "github.com/stewardbooks/backend/internal/middleware"
	"github.com/stewardbooks/backend/internal/services"
)

// @title StewardBooks Ledger API
// @version 1.0
// @description Ledger and approval engine for nonprofit financial record keeping
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("log.format", "LOG_FORMAT")

	logger.Init()

	// Swagger docs
	docs.SwaggerInfo.Title = "StewardBooks Ledger API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Notification delivery: queue when Redis is up, direct SMTP when
	// configured, otherwise log only.
	var notifier services.Notifier
	smtpCfg := config.LoadSMTPConfig()
	switch {
	case redisClient != nil:
		notifier = services.NewQueueNotifier(redisClient)
	case smtpCfg.Enabled():
		notifier = services.NewEmailNotifier(smtpCfg)
	default:
		notifier = services.LogNotifier{}
	}

	auditLog := audit.NewLogger()
	store := services.NewLedgerStore(db)
	builder := services.NewTransactionBuilder(store, notifier, auditLog)
	transfers := services.NewTransferOrchestrator(store, auditLog)
	reimbursements := services.NewReimbursementWorkflow(store, notifier, auditLog)

	accountHandler := handlers.NewAccountHandler(store)
	transactionHandler := handlers.NewTransactionHandler(store, builder)
	transferHandler := handlers.NewTransferHandler(transfers)
	reimbursementHandler := handlers.NewReimbursementHandler(store, reimbursements)
	catalogHandler := handlers.NewCatalogHandler(store)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/catalog/item-types", catalogHandler.ListItemTypes)
			r.Get("/catalog/methods", catalogHandler.ListMethods)

			r.Get("/accounts", accountHandler.ListAccounts)
			r.Get("/accounts/{accountId}", accountHandler.GetAccount)

			r.Get("/transactions", transactionHandler.ListTransactions)
			r.Get("/transactions/{txId}", transactionHandler.GetTransaction)
			r.Post("/transactions", transactionHandler.CreateTransaction)
			r.Patch("/transactions/{txId}", transactionHandler.UpdateTransaction)

			r.Post("/transfers", transferHandler.CreateTransfer)

			r.Post("/reimbursements", reimbursementHandler.SubmitRequest)
			r.Get("/reimbursements", reimbursementHandler.ListRequests)
			r.Get("/reimbursements/{requestId}", reimbursementHandler.GetRequest)

			// Admin-only operations
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole("ADMIN"))

				r.Post("/accounts", accountHandler.CreateAccount)
				r.Delete("/accounts/{accountId}", accountHandler.DeleteAccount)
				r.Post("/reimbursements/{requestId}/decision", reimbursementHandler.DecideRequest)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Log.Infof("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server stopped")
}
