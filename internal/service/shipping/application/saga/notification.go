package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// NotifyCreatedHandler 发送运单创建事件。发送失败不影响主流程。
type NotifyCreatedHandler struct {
	NextHandler
}

func (h *NotifyCreatedHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.NotifyCreated")
	defer span.End()

	span.SetAttributes(attribute.String("event.type", string(domain.EventShipmentCreated)))
	logger.Ctx(ctx).Info().Msg("【Saga】=> 步骤 6: 发送运单创建事件...")

	if sc.Events != nil {
		if err := sc.Events.PublishShipmentCreated(ctx, sc.Shipment); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int64("shipment_id", sc.Shipment.ID).Msg("failed to publish shipment created event")
			span.RecordError(err)
		}
	}
	return h.executeNext(sc)
}

// NotifyStatusChangedHandler 发送状态变更事件。发送失败不影响主流程。
type NotifyStatusChangedHandler struct {
	NextHandler
}

func (h *NotifyStatusChangedHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.NotifyStatusChanged")
	defer span.End()

	span.SetAttributes(attribute.String("event.type", string(domain.EventShipmentStatusChanged)))

	if sc.Events != nil {
		if err := sc.Events.PublishStatusChanged(ctx, sc.Shipment, sc.Previous); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int64("shipment_id", sc.Shipment.ID).Msg("failed to publish status changed event")
			span.RecordError(err)
		}
	}
	return h.executeNext(sc)
}
