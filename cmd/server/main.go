package main // Entry point package

import (
    "log" // Fallback logging before logrus is configured

    "github.com/joho/godotenv"    // .env loading for local development
    "github.com/labstack/echo/v4" // Echo web framework
    "github.com/sirupsen/logrus"  // Structured logging

    "github.com/iliyamo/flight-booking/internal/cache"
    "github.com/iliyamo/flight-booking/internal/config"
    "github.com/iliyamo/flight-booking/internal/database"
    "github.com/iliyamo/flight-booking/internal/handler"
    "github.com/iliyamo/flight-booking/internal/middleware"
    "github.com/iliyamo/flight-booking/internal/queue"
    "github.com/iliyamo/flight-booking/internal/repository"
    "github.com/iliyamo/flight-booking/internal/router"
    "github.com/iliyamo/flight-booking/internal/service"
    "github.com/iliyamo/flight-booking/internal/supplier"
)

func main() {
    // .env is optional; real deployments inject variables directly.
    _ = godotenv.Load()

    cfg := config.Load()

    logger := logrus.New()
    logger.SetFormatter(&logrus.JSONFormatter{})
    if cfg.Env == "dev" {
        logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
        logger.SetLevel(logrus.DebugLevel)
    }

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connection failed: %v", err)
    }
    defer db.Close()

    // Redis is optional: a nil client disables caching and rate limiting.
    rdb := config.NewRedisClient()
    if rdb == nil {
        logger.Warn("redis unavailable; caching and rate limiting disabled")
    }

    client := supplier.New(config.LoadSupplierConfig(), logger)

    resultCache := cache.New(config.LoadCacheConfig(), rdb, logger)

    bookingRepo := repository.NewBookingRepo(db)
    paymentRepo := repository.NewPaymentRepo(db)
    flightRepo := repository.NewFlightRepo(db)
    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)

    searchSvc := service.NewSearchService(client, resultCache, logger)
    bookingSvc := service.NewBookingService(bookingRepo, paymentRepo, flightRepo, client, nil, logger)

    // The consumer writes confirmed bookings to logs/booking.log and keeps
    // reconnecting on broker failures.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            logger.WithError(err).Error("booking consumer stopped")
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
    router.RegisterFlights(e, handler.NewFlightHandler(searchSvc))
    router.RegisterBookings(e, handler.NewBookingHandler(bookingSvc, cfg.FrontendURL), cfg.JWTSecret)

    addr := ":" + cfg.Port
    logger.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
