package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arman-petrosyan/slotbook/libs/config"
	"github.com/arman-petrosyan/slotbook/libs/db"
	"github.com/arman-petrosyan/slotbook/libs/httpx"
	"github.com/arman-petrosyan/slotbook/libs/kafkax"
	otelx "github.com/arman-petrosyan/slotbook/libs/otel"
	"github.com/arman-petrosyan/slotbook/libs/redisx"
	"github.com/arman-petrosyan/slotbook/libs/runtime"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/availability"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/cache"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/handlers"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/ledger"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/outbox"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/slotgrid"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/storage"
)

func gridFromEnv(logger *slog.Logger) slotgrid.Grid {
	grid := slotgrid.Default()

	openHour, err := config.Hour("OPEN_HOUR", grid.OpenHour)
	if err != nil {
		panic(err)
	}
	closeHour, err := config.Hour("CLOSE_HOUR", grid.CloseHour)
	if err != nil {
		panic(err)
	}
	grid.OpenHour = openHour
	grid.CloseHour = closeHour
	grid.SlotMinutes = config.Int("SLOT_MINUTES", grid.SlotMinutes)
	grid.HorizonDays = config.Int("BOOKING_HORIZON_DAYS", grid.HorizonDays)

	if tz := config.String("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			logger.Warn("invalid TIMEZONE, using local clock", "tz", tz, "err", err)
		} else {
			grid.Location = loc
		}
	}
	return grid
}

func main() {
	service := config.String("SERVICE_NAME", "reservation-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	rdb := redisx.New(config.String("REDIS_ADDR", ""))
	if rdb == nil {
		logger.Warn("redis not configured; availability cache and distributed rate limiting disabled")
	}

	grid := gridFromEnv(logger)
	maxPerDay := config.Int("MAX_SLOTS_PER_DAY", 2)

	repo := storage.NewReservationRepository(pool)
	ledgerCache := cache.NewLedgerCache(rdb, repo, cache.DefaultTTL, logger)
	outboxRepo := outbox.NewRepository(pool)

	coordinator := ledger.NewCoordinator(repo, grid, maxPerDay, logger,
		ledger.WithEvents(outbox.NewEmitter(outboxRepo)),
		ledger.WithInvalidator(ledgerCache),
	)
	resolver := availability.NewResolver(ledgerCache, grid, logger)
	reservationHandler := handlers.NewReservationHandler(resolver, coordinator, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	mux.HandleFunc("/api/v1/slots", reservationHandler.Slots)
	mux.HandleFunc("/api/v1/reserve", reservationHandler.Reserve)
	mux.HandleFunc("/api/v1/cancel", reservationHandler.Cancel)

	// The widget runs inside chat web views with unpredictable origins,
	// so the default policy is wide open.
	corsPolicy := httpx.CORSPolicy{
		AllowedOrigins: []string{config.String("CORS_ALLOWED_ORIGINS", "*")},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         10 * time.Minute,
	}

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limit httpx.Middleware
	if rdb != nil {
		limit = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(corsPolicy),
		limit,
		httpx.WithBodyLimit(64<<10),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
