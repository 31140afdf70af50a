package saga

import (
	"github.com/pkg/errors"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// ValidateInputHandler 校验请求字段，并确认运单号未被占用。
type ValidateInputHandler struct {
	NextHandler
	repo domain.ShipmentRepository
}

func NewValidateInputHandler(repo domain.ShipmentRepository) *ValidateInputHandler {
	return &ValidateInputHandler{repo: repo}
}

func (h *ValidateInputHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.ValidateInput")
	defer span.End()

	logger.Ctx(ctx).Info().Msg("【Saga】=> 步骤 1: 校验运单输入...")

	in := sc.Create
	shipment, err := domain.NewShipment(in.OrderID, in.Carrier, in.TrackingNo, sc.Now())
	if err != nil {
		return fail(span, err, "invalid shipment input")
	}

	_, err = h.repo.FindByTrackingNo(ctx, shipment.TrackingNo)
	switch {
	case err == nil:
		return fail(span, domain.NewError(domain.KindValidation, "tracking_no %q already exists", shipment.TrackingNo), "tracking number taken")
	case !errors.Is(err, domain.ErrNotFound):
		return fail(span, errors.Wrap(err, "check tracking number"), "repository lookup failed")
	}

	sc.Shipment = shipment
	return h.executeNext(sc)
}
