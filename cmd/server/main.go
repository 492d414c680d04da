package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink/internal/api/handlers"
	"github.com/campuslink/campuslink/internal/clock"
	"github.com/campuslink/campuslink/internal/config"
	"github.com/campuslink/campuslink/internal/db"
	apphandlers "github.com/campuslink/campuslink/internal/handlers"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/repository"
	"github.com/campuslink/campuslink/internal/service"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("✓ Configuration loaded")

	// 2. Initialize database connection
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer pool.Close()

	// 3. Initialize layers
	clk := clock.System()

	userRepo := repository.NewUserRepository(pool)
	otpRepo := repository.NewOTPRepository(pool, clk, cfg.OTPCodeLength)

	emailService := service.NewEmailService(cfg)
	rateLimiter := service.NewRateLimiter(otpRepo, cfg.OTPRateCeiling, models.OTPRateWindow)
	recoveryService := service.NewRecoveryService(userRepo, otpRepo, rateLimiter, emailService, clk, cfg.OTPTTL())
	authService := service.NewAuthService(userRepo, emailService, cfg.JWTSecret, cfg.AllowedEmailDomain)

	recoveryHandler := apphandlers.NewRecoveryHandler(recoveryService)
	authHandler := apphandlers.NewAuthHandler(authService, cfg.JWTSecret)
	healthHandler := handlers.NewHealthHandler(pool)

	// 4. Setup Gin router
	router := gin.Default()

	healthHandler.RegisterRoutes(router)
	authHandler.RegisterRoutes(router)
	recoveryHandler.RegisterRoutes(router)

	// 5. Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Println("🚀 Server starting on :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("✓ Server exited")
}
