package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/arman-petrosyan/slotbook/libs/config"
	"github.com/arman-petrosyan/slotbook/libs/db"
	"github.com/arman-petrosyan/slotbook/libs/kafkax"
	otelx "github.com/arman-petrosyan/slotbook/libs/otel"
	"github.com/arman-petrosyan/slotbook/libs/runtime"
	"github.com/arman-petrosyan/slotbook/services/notifier-service/internal/consumer"
	"github.com/arman-petrosyan/slotbook/services/notifier-service/internal/inbox"
	"github.com/arman-petrosyan/slotbook/services/notifier-service/internal/message"
	"github.com/arman-petrosyan/slotbook/services/notifier-service/internal/storage"
	"github.com/arman-petrosyan/slotbook/services/notifier-service/internal/telegram"
)

// bookedEvent mirrors the payload of reservations.slot.booked.v1.
type bookedEvent struct {
	Date        string         `json:"date"`
	Slots       []message.Slot `json:"slots"`
	HolderName  string         `json:"holder_name"`
	HolderPhone string         `json:"holder_phone"`
	RequesterID string         `json:"requester_id"`
}

func main() {
	service := config.String("SERVICE_NAME", "notifier-service")
	port, err := config.Port("PORT", "8081")
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

	var sender telegram.Sender
	if token := config.String("BOT_TOKEN", ""); token != "" {
		sender = telegram.NewBotAPISender(token, config.String("TELEGRAM_API_URL", ""))
	} else {
		logger.Warn("BOT_TOKEN not configured; confirmations will not be delivered")
		sender = telegram.NewNoopSender()
	}

	inboxRepo := inbox.NewRepository(pool)
	notifications := storage.NewRepository(pool)
	kafkaBrokers := config.String("KAFKA_BROKERS", "")

	handleBooked := func(ctx context.Context, msg kafka.Message) error {
		var evt bookedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			// Unparseable payloads are logged and skipped, not retried.
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.RequesterID == "" || evt.Date == "" || len(evt.Slots) == 0 {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		text := message.Confirmation(message.Booking{
			Date:        evt.Date,
			Slots:       evt.Slots,
			HolderName:  evt.HolderName,
			HolderPhone: evt.HolderPhone,
		})

		status := storage.StatusSent
		if err := sender.Send(ctx, evt.RequesterID, text); err != nil {
			logger.Error("confirmation delivery failed", "chat_id", evt.RequesterID, "provider", sender.ProviderID(), "err", err)
			status = storage.StatusFailed
		}

		meta := kafkax.ExtractEventMeta(msg)
		if err := notifications.Insert(ctx, storage.Notification{
			EventID: meta.EventID,
			ChatID:  evt.RequesterID,
			Payload: map[string]any{
				"date":   evt.Date,
				"slots":  evt.Slots,
				"name":   evt.HolderName,
				"phone":  evt.HolderPhone,
				"status": status,
			},
			Status: status,
		}); err != nil {
			return err
		}
		return nil
	}

	bookedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: kafkaBrokers,
		GroupID: config.String("KAFKA_GROUP_ID", "notifier-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "reservations.slot.booked.v1"),
	}, handleBooked)
	go bookedConsumer.Run(ctx)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
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
