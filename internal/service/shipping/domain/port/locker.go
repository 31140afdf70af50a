package port

import "context"

// Locker 为同一资源上的并发操作提供互斥。
type Locker interface {
	// Lock 阻塞直到获得 key 上的锁或 ctx 结束，返回的函数用于释放锁。
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}

// Resolver 将下游服务名解析为可访问的 base URL。
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}
