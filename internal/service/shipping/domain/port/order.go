package port

import (
	"context"
	"nexus-shipping/internal/service/shipping/domain"
)

// OrderGateway 是订单服务的出站端口。
// 每次调用都有独立的超时且不重试，失败策略由编排层统一决定。
type OrderGateway interface {
	// FetchOrder 拉取订单快照。传输错误、非 200 响应或响应体无法解析时返回失败结果。
	FetchOrder(ctx context.Context, orderID int64) Result[*domain.OrderSnapshot]

	// SetShippingStatus 同步订单的发货状态，仅在订单服务确认成功时返回成功。
	SetShippingStatus(ctx context.Context, orderID int64, status domain.Status) Ack
}
