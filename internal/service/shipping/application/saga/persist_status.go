package saga

import (
	"github.com/pkg/errors"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// PersistStatusHandler 写入新状态。这是更新 saga 的提交点，之后的失败不回滚。
type PersistStatusHandler struct {
	NextHandler
	repo domain.ShipmentRepository
}

func NewPersistStatusHandler(repo domain.ShipmentRepository) *PersistStatusHandler {
	return &PersistStatusHandler{repo: repo}
}

func (h *PersistStatusHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.PersistStatus")
	defer span.End()

	logger.Ctx(ctx).Info().Int64("shipment_id", sc.Shipment.ID).Msg("【Saga】=> 步骤 3: 保存运单状态...")

	if err := sc.Shipment.CheckInvariants(); err != nil {
		return fail(span, err, "shipment invariants violated")
	}
	if err := h.repo.Update(ctx, sc.Shipment); err != nil {
		return fail(span, errors.Wrap(err, "persist shipment status"), "update shipment failed")
	}
	return h.executeNext(sc)
}
