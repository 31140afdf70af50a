// internal/service/shipping/domain/status.go
package domain

import "fmt"

// Status 是运单生命周期状态。
// 它是一个封闭类型: 外部只能通过 ParseStatus / UnmarshalText 得到合法值，
// 不存在未识别的状态字符串进入持久化层的可能。
type Status struct {
	slug string
}

var (
	StatusPending   = Status{"PENDING"}   // 初始状态，创建时赋值
	StatusShipped   = Status{"SHIPPED"}   // 已发货
	StatusDelivered = Status{"DELIVERED"} // 已送达
	StatusFailed    = Status{"FAILED"}    // 配送失败
	StatusUnknown   = Status{"UNKNOWN"}   // 状态未知
)

var allStatuses = []Status{StatusPending, StatusShipped, StatusDelivered, StatusFailed, StatusUnknown}

// AllStatuses 返回全部合法状态，顺序固定。
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus 将外部输入转换为 Status，不在集合内的值返回 InvalidStatus。
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if st.slug == s {
			return st, nil
		}
	}
	return Status{}, NewError(KindInvalidStatus, "invalid shipping status %q, must be one of %v", s, allStatuses)
}

func (s Status) String() string {
	return s.slug
}

// IsZero 表示未赋值的 Status。
func (s Status) IsZero() bool {
	return s.slug == ""
}

// Terminal 表示本系统不会再自动迁出的状态。
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusUnknown:
		return true
	}
	return false
}

func (s Status) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("cannot marshal empty shipping status")
	}
	return []byte(s.slug), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
