package saga

import (
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// SyncOrderHandler 通知订单服务该订单已发货。这是创建 saga 的不可回滚点。
type SyncOrderHandler struct {
	NextHandler
}

func (h *SyncOrderHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.SyncOrder")
	defer span.End()

	logger.Ctx(ctx).Info().Int64("shipment_id", sc.Shipment.ID).Msg("【Saga】=> 步骤 4: 同步订单发货状态...")

	ack := sc.Orders.SetShippingStatus(ctx, sc.Shipment.OrderID, domain.StatusShipped)
	if !ack.OK() {
		return fail(span, domain.NewError(domain.KindOrderSyncFailed, "failed to update order service: %v", ack.Reason), "order sync failed")
	}

	sc.Pivot()
	span.AddEvent("Order acknowledged SHIPPED, compensations dropped.")
	return h.executeNext(sc)
}
