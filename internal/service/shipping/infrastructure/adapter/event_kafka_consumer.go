package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/metrics"
	"nexus-shipping/internal/pkg/mq"
	"nexus-shipping/internal/service/shipping/domain"
)

const fetchRetryDelay = time.Second

// MessageReader 是 *kafka.Reader 中消费者用到的部分
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// ShipmentEventHandler 处理一条已解码的运单事件
type ShipmentEventHandler func(ctx context.Context, event domain.ShipmentEvent) error

// ShipmentEventConsumer 是一个驱动适配器，它监听运单事件主题并把事件交给 handler。
// 无法解码或处理失败的消息同样提交 offset，不会阻塞分区。
type ShipmentEventConsumer struct {
	reader MessageReader
	tracer trace.Tracer
	handle ShipmentEventHandler
}

func NewShipmentEventConsumer(reader MessageReader, tracer trace.Tracer, handle ShipmentEventHandler) *ShipmentEventConsumer {
	return &ShipmentEventConsumer{reader: reader, tracer: tracer, handle: handle}
}

// Run 阻塞消费直到 ctx 结束
func (c *ShipmentEventConsumer) Run(ctx context.Context) error {
	for {
		// 使用 FetchMessage 而不是 ReadMessage，处理完成后再提交
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not fetch shipment event, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int64("offset", msg.Offset).Msg("shipment event skipped")
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit shipment event")
		}
	}
}

func (c *ShipmentEventConsumer) process(ctx context.Context, msg kafka.Message) error {
	// 从消息头中提取追踪上下文，把消费链接到发布事件的 saga
	ctx = mq.ExtractTraceContext(ctx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "shipment-events.Consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		))
	defer span.End()

	var event domain.ShipmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		err = errors.Wrap(err, "decode shipment event")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.EventsConsumed.WithLabelValues("unknown", "malformed").Inc()
		return err
	}
	span.SetAttributes(
		attribute.String("event.type", string(event.Type)),
		attribute.Int64("shipment.id", event.ShipmentID),
	)

	if err := c.handle(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.EventsConsumed.WithLabelValues(string(event.Type), "failed").Inc()
		return errors.Wrapf(err, "handle event %s", event.EventID)
	}
	metrics.EventsConsumed.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}
