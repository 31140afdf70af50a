package adapter

import (
	"context"
	"fmt"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
	"nexus-shipping/internal/service/shipping/infrastructure/inventory"
)

// StoreInventoryGateway 是 mock 模式下的 port.InventoryGateway，库存放在 inventory.Store 中。
type StoreInventoryGateway struct {
	store inventory.Store
}

func NewStoreInventoryGateway(store inventory.Store) *StoreInventoryGateway {
	return &StoreInventoryGateway{store: store}
}

func (g *StoreInventoryGateway) FetchInventory(ctx context.Context, itemIDs []int64) []port.Result[domain.InventoryRecord] {
	results := make([]port.Result[domain.InventoryRecord], len(itemIDs))
	for i, id := range itemIDs {
		record, err := g.store.Get(ctx, id)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int64("item_id", id).Msg("inventory store read failed")
			results[i] = port.Failure(domain.ZeroInventory(id), fmt.Errorf("%w: %v", port.ErrUnavailable, err))
			continue
		}
		results[i] = port.Success(record)
	}
	return results
}

func (g *StoreInventoryGateway) AdjustInventory(ctx context.Context, itemID int64, delta int) port.Result[domain.InventoryRecord] {
	record, err := g.store.Adjust(ctx, itemID, delta)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("item_id", itemID).Msg("inventory store adjust failed")
		return port.Failure(domain.ZeroInventory(itemID), fmt.Errorf("%w: %v", port.ErrUnavailable, err))
	}
	return port.Success(record)
}
