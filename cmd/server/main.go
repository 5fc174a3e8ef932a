package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/synth-squad/payout-engine/internal/alerts"
	"github.com/synth-squad/payout-engine/internal/compliance"
	"github.com/synth-squad/payout-engine/internal/config"
	"github.com/synth-squad/payout-engine/internal/currency"
	"github.com/synth-squad/payout-engine/internal/db"
	"github.com/synth-squad/payout-engine/internal/ledger"
	mware "github.com/synth-squad/payout-engine/internal/middleware"
	"github.com/synth-squad/payout-engine/internal/payout"
	"github.com/synth-squad/payout-engine/internal/provider"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rates := currency.New(cfg.RatesURL)
	rates.Start(ctx, cfg.RatesRefreshInterval)

	notifier := alerts.NewClient(cfg.RedisAddr)
	defer notifier.Close()

	registry := provider.NewRegistry()
	registry.Register("fnb", provider.NewFNB(cfg.FNB))
	registry.Register("paypal", provider.NewPayPal(cfg.PayPal))
	registry.Register("valr", provider.NewVALR(cfg.VALR))
	registry.Register("payfast", provider.NewPayFast(cfg.PayFast))
	registry.Register("trust", provider.NewTrustWallet(cfg.Trust))
	for name, bank := range cfg.Banks {
		registry.Register(name, provider.NewSABank(name, bank.BaseURL, bank.APIKey, rates))
	}
	log.Printf("payout methods: %v", registry.Methods())

	store := ledger.NewStore(pool)
	svc := payout.NewService(store, registry, compliance.NewScreener(), notifier, cfg.ProviderTimeout)
	handler := payout.NewHandler(svc)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	api := e.Group("")
	api.Use(mware.JWT([]byte(cfg.JWTSecret)))

	admin := e.Group("")
	admin.Use(mware.JWT([]byte(cfg.JWTSecret)))
	admin.Use(mware.AdminGuard)

	handler.Register(api, admin)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
