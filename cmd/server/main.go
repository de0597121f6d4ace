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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"storefront_pay/internal/app"
	"storefront_pay/internal/config"
	"storefront_pay/internal/handlers"
	authMiddleware "storefront_pay/internal/middleware"
	"storefront_pay/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("Warning: incomplete gateway configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.NewLogger(cfg)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Initialize Firebase
	var (
		verifier authMiddleware.TokenVerifier
		issuer   handlers.SessionIssuer
	)
	authClient, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Admin endpoints will reject requests until valid credentials are provided")
	} else {
		verifier = authClient
		issuer = authClient
	}
	if cfg.AdminAuthDisabled {
		log.Println("Warning: ADMIN_AUTH_DISABLED is set, admin endpoints are open")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = authMiddleware.NewErrorHandler(cfg.APIPrefix)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: true,
	}))

	routes := handlers.Routes{
		Health:     handlers.NewHealthHandler(a.DB),
		Payment:    handlers.NewPaymentHandler(a.Payments, cfg.ServerURL, cfg.FrontendURL, logger),
		Admin:      handlers.NewAdminHandler(a.Ledger, a.Payments, a.Settlements, logger),
		Auth:       handlers.NewAuthHandler(issuer, cfg.IsProduction()),
		AdminGuard: authMiddleware.RequireAdmin(verifier, cfg.AdminAuthDisabled),
		Limiter:    middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))),
	}
	routes.Register(e, cfg.APIPrefix)

	go func() {
		log.Printf("Server starting on port %s (gateway %s)", cfg.Port, cfg.Gateway.Host)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
