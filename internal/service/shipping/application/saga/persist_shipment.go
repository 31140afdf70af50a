package saga

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// PersistShipmentHandler 以 PENDING 状态落库，并注册删除补偿。
type PersistShipmentHandler struct {
	NextHandler
	repo domain.ShipmentRepository
}

func NewPersistShipmentHandler(repo domain.ShipmentRepository) *PersistShipmentHandler {
	return &PersistShipmentHandler{repo: repo}
}

func (h *PersistShipmentHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.PersistShipment")
	defer span.End()

	logger.Ctx(ctx).Info().Msg("【Saga】=> 步骤 3: 创建 PENDING 运单...")

	if err := h.repo.Create(ctx, sc.Shipment); err != nil {
		if errors.Is(err, domain.ErrTrackingNoTaken) {
			return fail(span, domain.NewError(domain.KindValidation, "tracking_no %q already exists", sc.Shipment.TrackingNo), "tracking number taken")
		}
		return fail(span, errors.Wrap(err, "persist shipment"), "persist shipment failed")
	}

	id := sc.Shipment.ID
	span.SetAttributes(attribute.Int64("shipment.id", id))
	sc.AddCompensation("DeleteShipment", func(ctx context.Context) error {
		logger.Ctx(ctx).Warn().Int64("shipment_id", id).Msg("rolling back shipment")
		return h.repo.Delete(ctx, id)
	})

	return h.executeNext(sc)
}
