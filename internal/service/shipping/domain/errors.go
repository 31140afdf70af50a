// internal/service/shipping/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Kind 是编排层失败的分类，接口层依据它决定返回码。
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindOrderUnavailable  Kind = "ORDER_UNAVAILABLE"
	KindOrderNotConfirmed Kind = "ORDER_NOT_CONFIRMED"
	KindOrderSyncFailed   Kind = "ORDER_SYNC_FAILED"
	KindNoItemsToShip     Kind = "NO_ITEMS_TO_SHIP"
	KindInvalidStatus     Kind = "INVALID_STATUS"
	KindMissingTimestamp  Kind = "MISSING_TIMESTAMP"
	KindNotFound          Kind = "NOT_FOUND"
)

// Error 是携带分类和可读信息的结构化失败。
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is 让 errors.Is 按分类匹配，消息内容不参与比较。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError 构造一个指定分类的失败。
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf 取出错误链上的分类。
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// 按分类匹配的哨兵错误，供 errors.Is 使用。
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrOrderUnavailable  = &Error{Kind: KindOrderUnavailable}
	ErrOrderNotConfirmed = &Error{Kind: KindOrderNotConfirmed}
	ErrOrderSyncFailed   = &Error{Kind: KindOrderSyncFailed}
	ErrNoItemsToShip     = &Error{Kind: KindNoItemsToShip}
	ErrInvalidStatus     = &Error{Kind: KindInvalidStatus}
	ErrMissingTimestamp  = &Error{Kind: KindMissingTimestamp}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

var (
	// ErrShipmentNotFound 由仓储在记录不存在时返回。
	ErrShipmentNotFound = NewError(KindNotFound, "shipment not found")
	// ErrTrackingNoTaken 由仓储在运单号唯一约束冲突时返回。
	ErrTrackingNoTaken = errors.New("tracking number already exists")
)
