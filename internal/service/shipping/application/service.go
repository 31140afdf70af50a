// internal/service/shipping/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/metrics"
	"nexus-shipping/internal/service/shipping/application/saga"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
)

const (
	sagaCreate = "create"
	sagaUpdate = "update"

	defaultLockTimeout = 10 * time.Second
)

// ShippingApplicationService 只关注运单的业务流程编排。
type ShippingApplicationService struct {
	repo      domain.ShipmentRepository
	orders    port.OrderGateway
	inventory port.InventoryGateway
	tracer    trace.Tracer

	events      port.ShipmentEventPublisher
	locker      port.Locker
	lockTimeout time.Duration
	policy      domain.TransitionPolicy
	now         func() time.Time

	createChain saga.Handler
	updateChain saga.Handler
}

// Option 配置可选依赖
type Option func(*ShippingApplicationService)

func WithEventPublisher(p port.ShipmentEventPublisher) Option {
	return func(s *ShippingApplicationService) { s.events = p }
}

// WithLocker 让更新 saga 在按运单的锁内执行，nil 表示不加锁
func WithLocker(l port.Locker) Option {
	return func(s *ShippingApplicationService) { s.locker = l }
}

// WithLockTimeout 限制等待锁的时间
func WithLockTimeout(d time.Duration) Option {
	return func(s *ShippingApplicationService) { s.lockTimeout = d }
}

func WithTransitionPolicy(p domain.TransitionPolicy) Option {
	return func(s *ShippingApplicationService) { s.policy = p }
}

// WithClock 替换 saga 使用的时钟
func WithClock(now func() time.Time) Option {
	return func(s *ShippingApplicationService) { s.now = now }
}

func NewShippingApplicationService(repo domain.ShipmentRepository, orders port.OrderGateway, inventory port.InventoryGateway, tracer trace.Tracer, opts ...Option) *ShippingApplicationService {
	s := &ShippingApplicationService{
		repo:        repo,
		orders:      orders,
		inventory:   inventory,
		tracer:      tracer,
		lockTimeout: defaultLockTimeout,
		policy:      domain.PermissivePolicy{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createChain = s.buildCreateChain()
	s.updateChain = s.buildUpdateChain()
	return s
}

func (s *ShippingApplicationService) buildCreateChain() saga.Handler {
	head := saga.NewValidateInputHandler(s.repo)
	head.SetNext(&saga.FetchOrderHandler{}).
		SetNext(saga.NewPersistShipmentHandler(s.repo)).
		SetNext(&saga.SyncOrderHandler{}).
		SetNext(saga.NewMarkShippedHandler(s.repo)).
		SetNext(&saga.NotifyCreatedHandler{}).
		SetNext(&saga.AdjustInventoryHandler{})
	return head
}

func (s *ShippingApplicationService) buildUpdateChain() saga.Handler {
	head := saga.NewLoadShipmentHandler(s.repo)
	head.SetNext(saga.NewValidateTransitionHandler(s.policy)).
		SetNext(saga.NewPersistStatusHandler(s.repo)).
		SetNext(&saga.NotifyStatusChangedHandler{}).
		SetNext(&saga.PropagateStatusHandler{})
	return head
}

func (s *ShippingApplicationService) newContext(ctx context.Context, sagaName string) (*saga.ShipmentContext, context.Context) {
	sagaID := uuid.NewString()
	l := logger.Ctx(ctx).With().Str("saga", sagaName).Str("saga_id", sagaID).Logger()
	ctx = l.WithContext(ctx)
	return &saga.ShipmentContext{
		Ctx:       ctx,
		Tracer:    s.tracer,
		Now:       s.now,
		SagaID:    sagaID,
		Orders:    s.orders,
		Inventory: s.inventory,
		Events:    s.events,
	}, ctx
}

// CreateShipment 为已确认的订单创建运单。
// 订单同步失败时删除已创建的运单；订单没有商品时运单保持 SHIPPED，结果和 NoItemsToShip 错误一起返回。
func (s *ShippingApplicationService) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateShipment")
	defer span.End()

	sc, ctx := s.newContext(ctx, sagaCreate)
	sc.Create = req.toInput()
	span.SetAttributes(attribute.Int64("order.id", req.OrderID), attribute.String("saga.id", sc.SagaID))

	if err := s.createChain.Handle(sc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create shipment saga failed")
		logger.Ctx(ctx).Warn().Err(err).Msg("create shipment saga failed")

		if cerr := sc.TriggerCompensation(context.WithoutCancel(ctx)); cerr != nil {
			logger.Ctx(ctx).Error().Err(cerr).Msg("CRITICAL: shipment rollback incomplete")
		}
		metrics.ObserveSaga(sagaCreate, outcome(err))

		if errors.Is(err, domain.ErrNoItemsToShip) {
			return &CreateShipmentResponse{Shipment: sc.Shipment, Adjustments: sc.Adjustments}, err
		}
		return nil, err
	}

	metrics.ObserveSaga(sagaCreate, outcome(nil))
	logger.Ctx(ctx).Info().Int64("shipment_id", sc.Shipment.ID).Msg("SUCCESS: shipment created and order marked SHIPPED")
	return &CreateShipmentResponse{Shipment: sc.Shipment, Adjustments: sc.Adjustments}, nil
}

// UpdateStatus 更新运单状态并同步订单服务。同步失败时本地状态已提交，不回滚。
func (s *ShippingApplicationService) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "app.UpdateStatus")
	defer span.End()

	sc, ctx := s.newContext(ctx, sagaUpdate)
	sc.Update = req.toInput()
	span.SetAttributes(attribute.Int64("shipment.id", req.ShipmentID), attribute.String("saga.id", sc.SagaID))

	unlock, err := s.acquire(ctx, req.ShipmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "acquire shipment lock failed")
		metrics.ObserveSaga(sagaUpdate, outcome(err))
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("release shipment lock")
		}
	}()

	if err := s.updateChain.Handle(sc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update status saga failed")
		logger.Ctx(ctx).Warn().Err(err).Msg("update status saga failed")
		metrics.ObserveSaga(sagaUpdate, outcome(err))
		return nil, err
	}

	metrics.ObserveSaga(sagaUpdate, outcome(nil))
	return sc.Shipment, nil
}

// acquire 未配置 locker 时不加锁，并发更新以最后一次写入为准
func (s *ShippingApplicationService) acquire(ctx context.Context, shipmentID int64) (func() error, error) {
	if s.locker == nil {
		return func() error { return nil }, nil
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, lockKey(shipmentID))
	if err != nil {
		return nil, errors.Wrapf(err, "lock shipment %d", shipmentID)
	}
	return unlock, nil
}

func lockKey(shipmentID int64) string {
	return fmt.Sprintf("shipment-%d", shipmentID)
}

// GetShipment 按 ID 查询运单
func (s *ShippingApplicationService) GetShipment(ctx context.Context, id int64) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetShipment")
	defer span.End()

	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "shipment %d not found", id)
	}
	return shipment, nil
}

// GetShipmentByTrackingNo 按运单号查询运单
func (s *ShippingApplicationService) GetShipmentByTrackingNo(ctx context.Context, trackingNo string) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetShipmentByTrackingNo")
	defer span.End()

	shipment, err := s.repo.FindByTrackingNo(ctx, trackingNo)
	if err != nil {
		return nil, lookupError(err, "shipment with tracking_no %q not found", trackingNo)
	}
	return shipment, nil
}

func lookupError(err error, format string, args ...any) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.KindNotFound, format, args...)
	}
	return errors.Wrap(err, "query shipment")
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready 检查运单存储是否可用
func (s *ShippingApplicationService) Ready(ctx context.Context) error {
	if p, ok := s.repo.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := domain.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
