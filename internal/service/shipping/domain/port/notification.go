package port

import (
	"context"
	"nexus-shipping/internal/service/shipping/domain"
)

// ShipmentEventPublisher 是运单事件的出站端口。
type ShipmentEventPublisher interface {
	// PublishShipmentCreated 发送运单创建成功事件。
	PublishShipmentCreated(ctx context.Context, shipment *domain.Shipment) error

	// PublishStatusChanged 发送运单状态变更事件。
	PublishStatusChanged(ctx context.Context, shipment *domain.Shipment, previous domain.Status) error
}
