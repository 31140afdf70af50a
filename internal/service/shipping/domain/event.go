// internal/service/shipping/domain/event.go
package domain

import "time"

// ShipmentEventType 是运单领域事件类型
type ShipmentEventType string

const (
	EventShipmentCreated       ShipmentEventType = "shipment.created"
	EventShipmentStatusChanged ShipmentEventType = "shipment.status_changed"
)

// ShipmentEvent 是 Saga 成功后对外广播的事件，发送失败不影响主流程。
type ShipmentEvent struct {
	EventID        string            `json:"eventId"`
	Type           ShipmentEventType `json:"type"`
	ShipmentID     int64             `json:"shipmentId"`
	OrderID        int64             `json:"orderId"`
	TrackingNo     string            `json:"trackingNo"`
	Status         Status            `json:"status"`
	PreviousStatus *Status           `json:"previousStatus,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
}
