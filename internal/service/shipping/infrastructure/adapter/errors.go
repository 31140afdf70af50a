package adapter

import (
	"errors"
	"fmt"

	"nexus-shipping/internal/pkg/httpclient"
	"nexus-shipping/internal/service/shipping/domain/port"
)

// classify 把 httpclient 的错误归入网关失败原因，保留原始信息用于日志
func classify(err error) error {
	var statusErr *httpclient.StatusError
	var decodeErr *httpclient.DecodeError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Errorf("%w: %v", port.ErrRejected, err)
	case errors.As(err, &decodeErr):
		return fmt.Errorf("%w: %v", port.ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", port.ErrUnavailable, err)
	}
}
