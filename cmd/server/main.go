package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ferhatka/studio-booking/internal/config"
	"github.com/ferhatka/studio-booking/internal/database"
	"github.com/ferhatka/studio-booking/internal/handler"
	"github.com/ferhatka/studio-booking/internal/payment"
	"github.com/ferhatka/studio-booking/internal/queue"
	"github.com/ferhatka/studio-booking/internal/reaper"
	"github.com/ferhatka/studio-booking/internal/repository"
	"github.com/ferhatka/studio-booking/internal/router"
	"github.com/ferhatka/studio-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Repositories: single-row persistence over MySQL.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	offeringRepo := repository.NewOfferingRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	discountRepo := repository.NewDiscountCodeRepo(db)

	// Notification events go through RabbitMQ when configured; without a
	// URL the engine simply does not publish.
	var notifier service.Notifier
	if cfg.AMQPURL != "" {
		notifier = queue.NewPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartNotificationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("queue: notification consumer stopped: %v", err)
			}
		}()
	}

	// Services: the booking engine proper.
	capacitySvc := service.NewCapacityService(sessionRepo)
	discountSvc := service.NewDiscountCodeService(discountRepo)
	bookingSvc := service.NewBookingService(
		offeringRepo, sessionRepo, bookingRepo, capacitySvc, discountSvc, notifier, cfg.BookingTTL)
	gateway := payment.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentAPIKey, nil)
	checkoutSvc := service.NewCheckoutService(bookingSvc, bookingRepo, gateway)
	eventSvc := service.NewPaymentEventService(bookingSvc)

	// In-process expiry sweeper alongside the cron endpoint.
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	if cfg.ReaperEnabled {
		go reaper.Run(rootCtx, bookingSvc, cfg.ReaperInterval)
	}

	// Redis backs the checkout rate limiter; nil disables it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterPublic(e, &handler.PublicHandler{OfferingRepo: offeringRepo, SessionRepo: sessionRepo})
	router.RegisterBooking(e,
		handler.NewCheckoutHandler(checkoutSvc),
		handler.NewBookingHandler(bookingSvc, bookingRepo),
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterOwner(e, handler.NewOwnerHandler(offeringRepo, sessionRepo, discountSvc), cfg.JWTSecret)
	router.RegisterIntegrations(e,
		handler.NewPaymentWebhookHandler(eventSvc, cfg.WebhookSecret),
		handler.NewCronHandler(bookingSvc, cfg.CronSecret))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
