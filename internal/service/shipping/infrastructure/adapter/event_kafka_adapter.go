package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"nexus-shipping/internal/pkg/mq"
	"nexus-shipping/internal/service/shipping/domain"
)

const defaultPublishTimeout = 5 * time.Second

// ShipmentEventKafkaAdapter 实现了 port.ShipmentEventPublisher 接口。
// 消息 key 是运单 ID，同一运单的事件落在同一分区。
type ShipmentEventKafkaAdapter struct {
	writer  *kafka.Writer
	timeout time.Duration
	now     func() time.Time
}

// NewShipmentEventKafkaAdapter 创建一个新的事件生产者适配器。
func NewShipmentEventKafkaAdapter(writer *kafka.Writer) *ShipmentEventKafkaAdapter {
	return &ShipmentEventKafkaAdapter{writer: writer, timeout: defaultPublishTimeout, now: time.Now}
}

func (a *ShipmentEventKafkaAdapter) PublishShipmentCreated(ctx context.Context, shipment *domain.Shipment) error {
	return a.publish(ctx, NewShipmentEvent(domain.EventShipmentCreated, shipment, nil, a.now()))
}

func (a *ShipmentEventKafkaAdapter) PublishStatusChanged(ctx context.Context, shipment *domain.Shipment, previous domain.Status) error {
	return a.publish(ctx, NewShipmentEvent(domain.EventShipmentStatusChanged, shipment, &previous, a.now()))
}

func (a *ShipmentEventKafkaAdapter) publish(ctx context.Context, event domain.ShipmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal shipment event")
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	key := []byte(strconv.FormatInt(event.ShipmentID, 10))
	if err := mq.ProduceMessage(ctx, a.writer, key, payload); err != nil {
		return errors.Wrapf(err, "publish %s", event.Type)
	}
	return nil
}

// Close 关闭底层的 Kafka writer。
func (a *ShipmentEventKafkaAdapter) Close() error {
	return a.writer.Close()
}

// NewShipmentEvent 由运单当前状态构造事件
func NewShipmentEvent(typ domain.ShipmentEventType, s *domain.Shipment, previous *domain.Status, at time.Time) domain.ShipmentEvent {
	return domain.ShipmentEvent{
		EventID:        uuid.NewString(),
		Type:           typ,
		ShipmentID:     s.ID,
		OrderID:        s.OrderID,
		TrackingNo:     s.TrackingNo,
		Status:         s.Status,
		PreviousStatus: previous,
		OccurredAt:     at,
	}
}

// NoopEventPublisher 在未启用 Kafka 时丢弃事件
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishShipmentCreated(context.Context, *domain.Shipment) error { return nil }

func (NoopEventPublisher) PublishStatusChanged(context.Context, *domain.Shipment, domain.Status) error {
	return nil
}
