package saga

import (
	"github.com/pkg/errors"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/domain"
)

// ValidateTransitionHandler 解析目标状态并校验时间戳规则和迁移守卫。
type ValidateTransitionHandler struct {
	NextHandler
	policy domain.TransitionPolicy
}

// NewValidateTransitionHandler policy 为 nil 时不限制迁移
func NewValidateTransitionHandler(policy domain.TransitionPolicy) *ValidateTransitionHandler {
	if policy == nil {
		policy = domain.PermissivePolicy{}
	}
	return &ValidateTransitionHandler{policy: policy}
}

func (h *ValidateTransitionHandler) Handle(sc *ShipmentContext) error {
	ctx, span := sc.Tracer.Start(sc.Ctx, "saga.ValidateTransition")
	defer span.End()

	in := sc.Update
	logger.Ctx(ctx).Info().Str("status", in.Status).Msg("【Saga】=> 步骤 2: 校验状态迁移...")

	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return fail(span, err, "invalid status")
	}
	change := domain.StatusChange{Status: status, ShippedAt: in.ShippedAt, DeliveredAt: in.DeliveredAt}
	if err := domain.ValidateTransition(sc.Shipment, change); err != nil {
		return fail(span, err, "invalid transition")
	}

	allowed, err := h.policy.Allow(sc.Shipment.Status, status)
	if err != nil {
		return fail(span, errors.Wrap(err, "evaluate transition policy"), "policy evaluation failed")
	}
	if !allowed {
		return fail(span, domain.NewError(domain.KindInvalidStatus,
			"transition from %s to %s is not allowed", sc.Shipment.Status, status), "transition rejected by policy")
	}

	sc.Shipment.ApplyStatus(change, sc.Now())
	return h.executeNext(sc)
}
