package saga

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// LoadShipmentHandler 读取待更新的运单
type LoadShipmentHandler struct {
	NextHandler
	repo domain.ShipmentRepository
}

func NewLoadShipmentHandler(repo domain.ShipmentRepository) *LoadShipmentHandler {
	return &LoadShipmentHandler{repo: repo}
}

func (h *LoadShipmentHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.LoadShipment")
	defer span.End()

	id := sc.Update.ShipmentID
	span.SetAttributes(attribute.Int64("shipment.id", id))
	logger.Ctx(ctx).Info().Int64("shipment_id", id).Msg("【Saga】=> 步骤 1: 读取运单...")

	shipment, err := h.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail(span, domain.NewError(domain.KindNotFound, "shipment %d not found", id), "shipment not found")
		}
		return fail(span, errors.Wrap(err, "load shipment"), "load shipment failed")
	}

	sc.Shipment = shipment
	sc.Previous = shipment.Status
	return h.executeNext(sc)
}
