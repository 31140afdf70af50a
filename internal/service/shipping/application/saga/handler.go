package saga

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/metrics"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
)

// CreateInput 是创建运单 saga 的输入
type CreateInput struct {
	OrderID    int64
	Carrier    string
	TrackingNo string
}

// UpdateInput 是更新状态 saga 的输入。Status 保持原始字符串，由校验步骤解析。
type UpdateInput struct {
	ShipmentID  int64
	Status      string
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// ItemAdjustment 是单个商品库存扣减的结果
type ItemAdjustment struct {
	ItemID   int64                               `json:"item_id"`
	Quantity int                                 `json:"quantity"`
	Result   port.Result[domain.InventoryRecord] `json:"-"`
}

// CompensationFunc 定义了补偿操作的函数签名
type CompensationFunc func(ctx context.Context) error

type compensation struct {
	name string
	fn   CompensationFunc
}

// ShipmentContext 在 Saga 流程中传递上下文数据。
type ShipmentContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Now    func() time.Time
	SagaID string

	// 出站端口
	Orders    port.OrderGateway
	Inventory port.InventoryGateway
	Events    port.ShipmentEventPublisher

	Create *CreateInput
	Update *UpdateInput

	Order       *domain.OrderSnapshot
	Shipment    *domain.Shipment
	Previous    domain.Status
	Adjustments []ItemAdjustment

	compensations []compensation
	compLock      sync.Mutex
}

// AddCompensation 将一个补偿函数推入栈中，后注册的先执行
func (c *ShipmentContext) AddCompensation(name string, fn CompensationFunc) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]compensation{{name: name, fn: fn}}, c.compensations...)
}

// Pivot 标记 saga 越过不可回滚点，之前注册的补偿全部作废
func (c *ShipmentContext) Pivot() {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = nil
}

// PendingCompensations 返回尚未执行的补偿数
func (c *ShipmentContext) PendingCompensations() int {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	return len(c.compensations)
}

// TriggerCompensation 执行并清空补偿栈。单个补偿失败不影响其余补偿。
func (c *ShipmentContext) TriggerCompensation(ctx context.Context) error {
	c.compLock.Lock()
	defer c.compLock.Unlock()

	if len(c.compensations) == 0 {
		return nil
	}
	log := logger.Ctx(ctx)
	log.Info().Int("count", len(c.compensations)).Msg("executing compensation functions")

	var errs []error
	for _, comp := range c.compensations {
		compCtx, span := c.Tracer.Start(ctx, "compensation."+comp.name)
		if err := comp.fn(compCtx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.CompensationsTotal.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("compensation", comp.name).Msg("CRITICAL: compensation failed")
			errs = append(errs, err)
		} else {
			metrics.CompensationsTotal.WithLabelValues("ok").Inc()
		}
		span.End()
	}
	c.compensations = nil
	return errors.Join(errs...)
}

// Handler 定义了责任链中每个节点的接口
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(sc *ShipmentContext) error
}

// NextHandler 可以嵌入到具体的处理器中，以减少重复代码
type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(sc *ShipmentContext) error {
	if h.next != nil {
		return h.next.Handle(sc)
	}
	return nil
}

// fail 在 span 上记录失败并原样返回 err
func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
