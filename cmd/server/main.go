package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"courier-broker/internal/carriers"
	"courier-broker/internal/config"
	"courier-broker/internal/models"
	"courier-broker/internal/modules/bookings"
	"courier-broker/internal/modules/partners"
	"courier-broker/internal/modules/rates"
	"courier-broker/internal/modules/tracking"
	"courier-broker/internal/modules/wallet"
	"courier-broker/pkg/notification"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	registry := carriers.NewRegistry(
		carriers.NewDelhivery(cfg.DelhiveryBaseURL, cfg.DelhiveryAPIToken,
			cfg.DelhiveryB2BURL, cfg.DelhiveryB2BUser, cfg.DelhiveryB2BSecret),
		carriers.NewXpressbees(cfg.XpressbeesBaseURL, cfg.XpressbeesEmail, cfg.XpressbeesPassword),
		carriers.NewBluedart(),
		carriers.NewDTDC(),
		carriers.NewEcomExpress(cfg.EcomExpressBaseURL, cfg.EcomExpressUser, cfg.EcomExpressSecret),
	)

	notifier := notification.NewSESNotifier(ctx, cfg.AWSRegion, cfg.SenderEmail, cfg.OpsEmail)

	partnerRepo := partners.NewRepository(pool)
	partnerSvc := partners.NewService(partnerRepo)
	partnerHandler := partners.NewHandler(partnerSvc)

	rateRepo := rates.NewRepository(pool)
	rateSvc := rates.NewService(rateRepo, partnerSvc, registry)
	rateHandler := rates.NewHandler(rateSvc)

	walletRepo := wallet.NewRepository(pool)
	walletSvc := wallet.NewService(walletRepo, pool, cfg.StripeAPIKey)
	walletHandler := wallet.NewHandler(walletSvc)

	bookingRepo := bookings.NewRepository(pool, walletRepo)
	bookingSvc := bookings.NewService(bookingRepo, rateSvc, walletSvc, registry, notifier)
	bookingHandler := bookings.NewHandler(bookingSvc)

	trackingRepo := tracking.NewRepository(pool)
	trackingSvc := tracking.NewService(trackingRepo, registry, notifier)
	trackingHandler := tracking.NewHandler(trackingSvc)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		SuccessHandler: func(c echo.Context) {
			token := c.Get("user").(*jwt.Token)
			claims := token.Claims.(jwt.MapClaims)
			if sub, ok := claims["sub"].(string); ok {
				c.Set("userID", sub)
			}
			if role, ok := claims["role"].(string); ok {
				c.Set("userRole", role)
			}
		},
	}))

	rateHandler.RegisterRoutes(api)
	bookingHandler.RegisterRoutes(api)
	trackingHandler.RegisterRoutes(api)
	walletHandler.RegisterRoutes(api)

	admin := api.Group("/admin", requireAdmin)
	partnerHandler.RegisterRoutes(admin)
	rateHandler.RegisterAdminRoutes(admin)

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get("userRole").(string); role != "ADMIN" {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: models.ErrForbidden.Error()})
		}
		return next(c)
	}
}
