package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/metrics"
	"nexus-shipping/internal/service/shipping/domain"
)

// AdjustInventoryHandler 逐项扣减库存。每项独立执行，失败只记录不回滚。
type AdjustInventoryHandler struct {
	NextHandler
}

func (h *AdjustInventoryHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.AdjustInventory")
	defer span.End()

	log := logger.Ctx(ctx)
	log.Info().Int64("shipment_id", sc.Shipment.ID).Msg("【Saga】=> 步骤 7: 扣减库存...")

	items := sc.Order.Items
	if len(items) == 0 {
		return fail(span, domain.NewError(domain.KindNoItemsToShip, "no items found in order %d for inventory update", sc.Order.OrderID), "no items to ship")
	}

	var failed int
	for _, item := range items {
		if item.ItemID == nil || item.Quantity == nil {
			log.Warn().Interface("item", item).Msg("skipping order item without id or quantity")
			continue
		}
		itemID, qty := *item.ItemID, *item.Quantity
		res := sc.Inventory.AdjustInventory(ctx, itemID, qty)
		if !res.OK() {
			failed++
			metrics.InventoryAdjustFailures.Inc()
			log.Warn().Err(res.Reason).Int64("item_id", itemID).Int("quantity", qty).Msg("inventory adjustment failed, continuing")
		}
		sc.Adjustments = append(sc.Adjustments, ItemAdjustment{ItemID: itemID, Quantity: qty, Result: res})
	}

	span.AddEvent("Inventory adjusted", trace.WithAttributes(
		attribute.Int("items.adjusted", len(sc.Adjustments)-failed),
		attribute.Int("items.failed", failed),
	))
	return h.executeNext(sc)
}
