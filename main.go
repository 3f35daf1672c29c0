// File: tourvia/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourvia/config"
	"tourvia/cron"
	"tourvia/database"
	"tourvia/database/repository"
	"tourvia/handlers"
	"tourvia/routes"
	"tourvia/services/booking"
	"tourvia/services/notification"
	"tourvia/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitNotifyClient()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// repositories.
	bookingRepo := repository.NewMongoBookingRepo()
	notificationRepo := repository.NewMongoNotificationRepo()
	walletRepo := repository.NewMongoWalletRepo()

	// services.
	notificationService, err := notification.NewDefaultNotificationService(
		notificationRepo,
		utils.GetCacheClient(),
		utils.GetNotifyClient(),
		utils.FCMClient,
		logger,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	ledger := booking.NewHTTPTransferLedger(config.AppConfig.BankAPIBaseURL, logger)
	statusService := &booking.DefaultStatusService{
		Repo:     bookingRepo,
		Wallet:   walletRepo,
		Ledger:   ledger,
		Notifier: notificationService,
		Logger:   logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Auth:         handlers.NewAuthHandler(logger),
		Booking:      handlers.NewBookingHandler(statusService, logger),
		Admin:        handlers.NewAdminHandler(statusService, logger),
		Notification: handlers.NewNotificationHandler(notificationService, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Background payment-expiry sweep.
	cron.InitExpiryWorker(statusService, logger)

	utils.StartHealthMonitor(utils.GetCacheClient(), utils.GetNotifyClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
