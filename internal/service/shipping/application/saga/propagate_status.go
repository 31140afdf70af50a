package saga

import (
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// PropagateStatusHandler 把新状态同步给订单服务，失败时本地状态保持不变。
type PropagateStatusHandler struct {
	NextHandler
}

func (h *PropagateStatusHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.PropagateStatus")
	defer span.End()

	logger.Ctx(ctx).Info().Int64("order_id", sc.Shipment.OrderID).Msg("【Saga】=> 步骤 5: 同步订单状态...")

	ack := sc.Orders.SetShippingStatus(ctx, sc.Shipment.OrderID, sc.Shipment.Status)
	if !ack.OK() {
		return fail(span, domain.NewError(domain.KindOrderSyncFailed, "failed to sync with order service: %v", ack.Reason), "order sync failed")
	}
	return h.executeNext(sc)
}
