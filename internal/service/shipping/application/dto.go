// internal/service/shipping/application/dto.go
package application

import (
	"time"

	"nexus-shipping/internal/service/shipping/application/saga"
	"nexus-shipping/internal/service/shipping/domain"
)

// CreateShipmentRequest 是创建运单的入参
type CreateShipmentRequest struct {
	OrderID    int64  `json:"order_id"`
	Carrier    string `json:"carrier"`
	TrackingNo string `json:"tracking_no"`
}

func (r *CreateShipmentRequest) toInput() *saga.CreateInput {
	return &saga.CreateInput{OrderID: r.OrderID, Carrier: r.Carrier, TrackingNo: r.TrackingNo}
}

// CreateShipmentResponse 携带创建后的运单和每个商品的库存扣减结果
type CreateShipmentResponse struct {
	Shipment    *domain.Shipment
	Adjustments []saga.ItemAdjustment
}

// FailedAdjustments 返回扣减失败的商品
func (r *CreateShipmentResponse) FailedAdjustments() []saga.ItemAdjustment {
	var out []saga.ItemAdjustment
	for _, a := range r.Adjustments {
		if !a.Result.OK() {
			out = append(out, a)
		}
	}
	return out
}

// UpdateStatusRequest 是更新运单状态的入参，时间戳可选
type UpdateStatusRequest struct {
	ShipmentID  int64      `json:"-"`
	Status      string     `json:"status"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

func (r *UpdateStatusRequest) toInput() *saga.UpdateInput {
	return &saga.UpdateInput{
		ShipmentID:  r.ShipmentID,
		Status:      r.Status,
		ShippedAt:   r.ShippedAt,
		DeliveredAt: r.DeliveredAt,
	}
}
