package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/config"
	"github.com/jabenka/bank-cards/internal/handler"
	"github.com/jabenka/bank-cards/internal/repository"
	"github.com/jabenka/bank-cards/internal/scheduler"
	"github.com/jabenka/bank-cards/internal/service"
	"github.com/jabenka/bank-cards/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	cardRepo := repository.NewCardRepository(db)
	userRepo := repository.NewUserRepository(db)
	blockRepo := repository.NewBlockRequestRepository(db)

	sender := email.NewSender(cfg, logger)
	authSvc := service.NewAuthService(userRepo, cfg, logger)
	cardSvc := service.NewCardService(cardRepo, userRepo, logger)
	transferSvc := service.NewTransferService(cardRepo, logger)
	blockingSvc := service.NewBlockingService(cardRepo, userRepo, blockRepo, sender, logger)
	userSvc := service.NewUserService(userRepo, cardRepo, logger)

	h := handler.NewHandler(authSvc, cardSvc, transferSvc, blockingSvc, userSvc, logger)

	// Start the daily card expiry sweep
	sweep := scheduler.New(cardSvc, logger)
	if err := sweep.Start(cfg.ExpirySweepSpec); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sweep.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/refresh", h.Refresh).Methods("POST")

	// User routes
	userRouter := r.PathPrefix("/user").Subrouter()
	userRouter.Use(h.AuthMiddleware())
	userRouter.HandleFunc("/cards/get", h.GetCards).Methods("GET")
	userRouter.HandleFunc("/cards/block", h.BlockCard).Methods("POST")
	userRouter.HandleFunc("/cards/balance", h.GetBalance).Methods("GET")
	userRouter.HandleFunc("/cards/transfer", h.Transfer).Methods("POST")

	// Admin routes
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(h.AuthMiddleware(), h.AdminOnly())
	adminRouter.HandleFunc("/cards/create", h.CreateCard).Methods("POST")
	adminRouter.HandleFunc("/cards/update", h.UpdateCard).Methods("PATCH")
	adminRouter.HandleFunc("/cards/delete", h.DeleteCard).Methods("DELETE")
	adminRouter.HandleFunc("/cards/", h.GetAllCards).Methods("GET")
	adminRouter.HandleFunc("/cards/block/requests", h.GetAllBlockRequests).Methods("GET")
	adminRouter.HandleFunc("/cards/block/resolve", h.ResolveBlockRequest).Methods("PATCH")
	adminRouter.HandleFunc("/users/", h.GetAllUsers).Methods("GET")
	adminRouter.HandleFunc("/users/add", h.Register).Methods("POST")
	adminRouter.HandleFunc("/users/delete", h.DeleteUser).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
