package saga

import (
	"github.com/pkg/errors"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// MarkShippedHandler 将本地运单置为 SHIPPED
type MarkShippedHandler struct {
	NextHandler
	repo domain.ShipmentRepository
}

func NewMarkShippedHandler(repo domain.ShipmentRepository) *MarkShippedHandler {
	return &MarkShippedHandler{repo: repo}
}

func (h *MarkShippedHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.MarkShipped")
	defer span.End()

	logger.Ctx(ctx).Info().Int64("shipment_id", sc.Shipment.ID).Msg("【Saga】=> 步骤 5: 标记运单已发货...")

	sc.Shipment.MarkAsShipped(sc.Now())
	if err := h.repo.Update(ctx, sc.Shipment); err != nil {
		return fail(span, errors.Wrap(err, "mark shipment shipped"), "update shipment failed")
	}
	return h.executeNext(sc)
}
