package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// FetchOrderHandler 拉取订单快照，只有 CONFIRMED 订单可以发货。
type FetchOrderHandler struct {
	NextHandler
}

func (h *FetchOrderHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.FetchOrder")
	defer span.End()

	orderID := sc.Create.OrderID
	span.SetAttributes(attribute.Int64("order.id", orderID))
	logger.Ctx(ctx).Info().Int64("order_id", orderID).Msg("【Saga】=> 步骤 2: 查询订单...")

	res := sc.Orders.FetchOrder(ctx, orderID)
	if !res.OK() || res.Value == nil {
		return fail(span, domain.NewError(domain.KindOrderUnavailable, "order %d not found or unavailable", orderID), "order unavailable")
	}
	if !res.Value.Confirmed() {
		return fail(span, domain.NewError(domain.KindOrderNotConfirmed,
			"shipment allowed only for %s orders, order %d is %s", domain.OrderStatusConfirmed, orderID, res.Value.OrderStatus), "order not confirmed")
	}

	sc.Order = res.Value
	return h.executeNext(sc)
}
