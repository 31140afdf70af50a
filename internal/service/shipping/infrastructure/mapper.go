package infrastructure

import (
	"github.com/pkg/errors"

	"nexus-shipping/internal/service/shipping/domain"
)

// ToDomainShipment 将数据库模型转换为领域模型。库中的非法状态值会返回错误而不是被静默接受。
func ToDomainShipment(model *ShipmentModel) (*domain.Shipment, error) {
	if model == nil {
		return nil, nil
	}
	status, err := domain.ParseStatus(model.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "shipment %d has corrupt status", model.ID)
	}
	return &domain.Shipment{
		ID:          model.ID,
		OrderID:     model.OrderID,
		Carrier:     model.Carrier,
		TrackingNo:  model.TrackingNo,
		Status:      status,
		ShippedAt:   model.ShippedAt,
		DeliveredAt: model.DeliveredAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

// FromDomainShipment 将领域模型转换为数据库模型
func FromDomainShipment(s *domain.Shipment) *ShipmentModel {
	if s == nil {
		return nil
	}
	return &ShipmentModel{
		ID:          s.ID,
		OrderID:     s.OrderID,
		Carrier:     s.Carrier,
		TrackingNo:  s.TrackingNo,
		Status:      s.Status.String(),
		ShippedAt:   s.ShippedAt,
		DeliveredAt: s.DeliveredAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
