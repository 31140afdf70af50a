package port

import "errors"

// 网关失败原因。网关永远不把原始传输错误抛给编排层，而是包装成下面几类。
var (
	ErrUnavailable = errors.New("downstream service unavailable")
	ErrRejected    = errors.New("downstream service rejected the request")
	ErrMalformed   = errors.New("downstream service returned a malformed response")
)

// Result 是网关调用的显式结果: 成功时 Reason 为 nil，
// 失败时 Value 为占位值，Reason 说明失败原因。
// 这样调用方可以区分 "库存为零" 与 "库存未知"。
type Result[T any] struct {
	Value  T
	Reason error
}

// OK 表示调用成功。
func (r Result[T]) OK() bool {
	return r.Reason == nil
}

func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Failure[T any](fallback T, reason error) Result[T] {
	if reason == nil {
		reason = ErrUnavailable
	}
	return Result[T]{Value: fallback, Reason: reason}
}

// Ack 是只关心成功与否的调用结果。
type Ack = Result[struct{}]

func Acked() Ack {
	return Ack{}
}

func NotAcked(reason error) Ack {
	return Failure(struct{}{}, reason)
}
