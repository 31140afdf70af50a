// internal/service/shipping/domain/shipment.go
package domain

import (
	"strings"
	"time"
)

// Shipment 是运单聚合的根实体
type Shipment struct {
	ID          int64      `json:"shipment_id"`
	OrderID     int64      `json:"order_id"`
	Carrier     string     `json:"carrier"`
	TrackingNo  string     `json:"tracking_no"`
	Status      Status     `json:"status"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// 工厂函数: NewShipment 创建一个 PENDING 状态的运单，ID 由仓储分配。
func NewShipment(orderID int64, carrier, trackingNo string, now time.Time) (*Shipment, error) {
	carrier = strings.TrimSpace(carrier)
	trackingNo = strings.TrimSpace(trackingNo)
	switch {
	case orderID <= 0:
		return nil, NewError(KindValidation, "order_id is required")
	case carrier == "":
		return nil, NewError(KindValidation, "carrier is required")
	case trackingNo == "":
		return nil, NewError(KindValidation, "tracking_no is required")
	}
	return &Shipment{
		OrderID:    orderID,
		Carrier:    carrier,
		TrackingNo: trackingNo,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ApplyStatus 写入新状态及随附的时间戳。调用方需先通过 ValidateTransition。
func (s *Shipment) ApplyStatus(change StatusChange, now time.Time) {
	s.Status = change.Status
	if change.ShippedAt != nil {
		t := *change.ShippedAt
		s.ShippedAt = &t
	}
	if change.DeliveredAt != nil {
		t := *change.DeliveredAt
		s.DeliveredAt = &t
	}
	s.UpdatedAt = now
}

// MarkAsShipped 将运单置为 SHIPPED 并记录发货时间
func (s *Shipment) MarkAsShipped(at time.Time) {
	s.ApplyStatus(StatusChange{Status: StatusShipped, ShippedAt: &at}, at)
}

// CheckInvariants 校验每次写入后都必须成立的不变量。
func (s *Shipment) CheckInvariants() error {
	if s.Status.IsZero() {
		return NewError(KindInvalidStatus, "shipment %q has no status", s.TrackingNo)
	}
	if s.DeliveredAt != nil && s.ShippedAt == nil {
		return NewError(KindMissingTimestamp, "delivered_at cannot be set without shipped_at")
	}
	if s.Status == StatusDelivered && s.DeliveredAt == nil {
		return NewError(KindMissingTimestamp, "delivered status requires delivered_at timestamp")
	}
	if s.Status == StatusShipped && s.ShippedAt == nil {
		return NewError(KindMissingTimestamp, "shipped status requires shipped_at timestamp")
	}
	return nil
}

// Clone 返回深拷贝，时间指针不共享。
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	c := *s
	if s.ShippedAt != nil {
		t := *s.ShippedAt
		c.ShippedAt = &t
	}
	if s.DeliveredAt != nil {
		t := *s.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}
