package adapter

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"nexus-shipping/internal/pkg/httpclient"
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
)

const (
	// InventoryServiceName 是库存服务在解析器中的默认名称
	InventoryServiceName = "inventory-service"

	defaultFetchConcurrency = 4
)

// InventoryHTTPAdapter 实现了 port.InventoryGateway 接口。
type InventoryHTTPAdapter struct {
	client      *httpclient.Client
	resolver    port.Resolver
	service     string
	concurrency int
}

// NewInventoryHTTPAdapter 创建一个新的库存服务适配器。concurrency 限制批量查询的并发数。
func NewInventoryHTTPAdapter(client *httpclient.Client, resolver port.Resolver, service string, concurrency int) *InventoryHTTPAdapter {
	if service == "" {
		service = InventoryServiceName
	}
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	return &InventoryHTTPAdapter{client: client, resolver: resolver, service: service, concurrency: concurrency}
}

// FetchInventory 并发查询，结果按下标写回，与入参同序
func (a *InventoryHTTPAdapter) FetchInventory(ctx context.Context, itemIDs []int64) []port.Result[domain.InventoryRecord] {
	results := make([]port.Result[domain.InventoryRecord], len(itemIDs))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, id := range itemIDs {
		g.Go(func() error {
			results[i] = a.fetchOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *InventoryHTTPAdapter) fetchOne(ctx context.Context, itemID int64) port.Result[domain.InventoryRecord] {
	base, err := a.resolver.Resolve(ctx, a.service)
	if err != nil {
		return port.Failure(domain.ZeroInventory(itemID), fmt.Errorf("%w: %v", port.ErrUnavailable, err))
	}

	var record domain.InventoryRecord
	if err := a.client.DoJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%d/", base, itemID), nil, &record); err != nil {
		reason := classify(err)
		logger.Ctx(ctx).Warn().Err(reason).Int64("item_id", itemID).Msg("fetch inventory failed")
		return port.Failure(domain.ZeroInventory(itemID), reason)
	}
	record.ItemID = itemID
	return port.Success(record)
}

type quantityPatch struct {
	QuantityChange int `json:"quantity_change"`
}

// AdjustInventory PATCH {base}/{id}/update/
func (a *InventoryHTTPAdapter) AdjustInventory(ctx context.Context, itemID int64, delta int) port.Result[domain.InventoryRecord] {
	base, err := a.resolver.Resolve(ctx, a.service)
	if err != nil {
		return port.Failure(domain.ZeroInventory(itemID), fmt.Errorf("%w: %v", port.ErrUnavailable, err))
	}

	var record domain.InventoryRecord
	url := fmt.Sprintf("%s/%d/update/", base, itemID)
	if err := a.client.DoJSON(ctx, http.MethodPatch, url, quantityPatch{QuantityChange: delta}, &record); err != nil {
		reason := classify(err)
		logger.Ctx(ctx).Warn().Err(reason).Int64("item_id", itemID).Int("quantity_change", delta).Msg("adjust inventory failed")
		return port.Failure(domain.ZeroInventory(itemID), reason)
	}
	record.ItemID = itemID
	return port.Success(record)
}
