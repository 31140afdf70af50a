package adapter

import (
	"context"
	"fmt"
	"net/http"

	"nexus-shipping/internal/pkg/httpclient"
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
)

// OrderServiceName 是订单服务在解析器中的默认名称
const OrderServiceName = "order-service"

// OrderHTTPAdapter 实现了 port.OrderGateway 接口。
type OrderHTTPAdapter struct {
	client   *httpclient.Client
	resolver port.Resolver
	service  string
}

// NewOrderHTTPAdapter 创建一个新的订单服务适配器。
func NewOrderHTTPAdapter(client *httpclient.Client, resolver port.Resolver, service string) *OrderHTTPAdapter {
	if service == "" {
		service = OrderServiceName
	}
	return &OrderHTTPAdapter{client: client, resolver: resolver, service: service}
}

// FetchOrder GET {base}/{id}/detail/
func (a *OrderHTTPAdapter) FetchOrder(ctx context.Context, orderID int64) port.Result[*domain.OrderSnapshot] {
	base, err := a.resolver.Resolve(ctx, a.service)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Msg("resolve order service")
		return port.Failure[*domain.OrderSnapshot](nil, fmt.Errorf("%w: %v", port.ErrUnavailable, err))
	}

	var snapshot domain.OrderSnapshot
	if err := a.client.DoJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%d/detail/", base, orderID), nil, &snapshot); err != nil {
		reason := classify(err)
		logger.Ctx(ctx).Warn().Err(reason).Int64("order_id", orderID).Msg("fetch order failed")
		return port.Failure[*domain.OrderSnapshot](nil, reason)
	}
	// null 或 {} 的 200 响应视为订单不存在
	if snapshot.OrderStatus == "" {
		logger.Ctx(ctx).Warn().Int64("order_id", orderID).Msg("order service returned an empty order")
		return port.Failure[*domain.OrderSnapshot](nil, fmt.Errorf("%w: empty order", port.ErrMalformed))
	}
	if snapshot.OrderID == 0 {
		snapshot.OrderID = orderID
	}
	return port.Success(&snapshot)
}

type shippingStatusPatch struct {
	ShippingStatus string `json:"shipping_status"`
}

// SetShippingStatus PATCH {base}/{id}/update/，只有 200 视为成功
func (a *OrderHTTPAdapter) SetShippingStatus(ctx context.Context, orderID int64, status domain.Status) port.Ack {
	base, err := a.resolver.Resolve(ctx, a.service)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Msg("resolve order service")
		return port.NotAcked(fmt.Errorf("%w: %v", port.ErrUnavailable, err))
	}

	body := shippingStatusPatch{ShippingStatus: status.String()}
	if err := a.client.DoJSON(ctx, http.MethodPatch, fmt.Sprintf("%s/%d/update/", base, orderID), body, nil); err != nil {
		reason := classify(err)
		logger.Ctx(ctx).Warn().Err(reason).Int64("order_id", orderID).Str("shipping_status", status.String()).Msg("order status sync failed")
		return port.NotAcked(reason)
	}
	return port.Acked()
}
