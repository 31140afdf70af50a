// cmd/shipment-event-listener/main.go
package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"nexus-shipping/internal/pkg/bootstrap"
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/mq"
	"nexus-shipping/internal/pkg/tracing"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/infrastructure/adapter"
)

const serviceName = "shipment-event-listener"

// 消费 shipping-service 发布的运单事件并写入结构化日志
func main() {
	cfg, err := bootstrap.LoadConfig("")
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(serviceName, cfg.App.LogLevel)

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zlog.Error().Err(err).Msg("Error shutting down tracer provider")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kafkaCfg := cfg.Infra.Kafka
	reader := mq.NewKafkaReader(strings.Split(kafkaCfg.Brokers, ","), kafkaCfg.Topic, kafkaCfg.GroupID)
	defer reader.Close()

	consumer := adapter.NewShipmentEventConsumer(reader, otel.Tracer(serviceName), logEvent)
	zlog.Info().Str("topic", kafkaCfg.Topic).Str("group", kafkaCfg.GroupID).Msg("Shipment event listener started")
	if err := consumer.Run(ctx); err != nil {
		zlog.Error().Err(err).Msg("consumer stopped with error")
	}
	zlog.Info().Msg("Shipment event listener stopped.")
}

func logEvent(ctx context.Context, event domain.ShipmentEvent) error {
	l := logger.Ctx(ctx).Info().
		Str("event_id", event.EventID).
		Str("type", string(event.Type)).
		Int64("shipment_id", event.ShipmentID).
		Int64("order_id", event.OrderID).
		Str("tracking_no", event.TrackingNo).
		Str("status", event.Status.String()).
		Time("occurred_at", event.OccurredAt)
	if event.PreviousStatus != nil {
		l = l.Str("previous_status", event.PreviousStatus.String())
	}
	l.Msg("shipment event received")
	return nil
}
