package lock

import (
	"context"

	"github.com/pkg/errors"

	"nexus-shipping/internal/pkg/zookeeper"
)

// ZookeeperLocker 基于临时顺序节点实现跨进程互斥，会话断开时锁自动释放。
type ZookeeperLocker struct {
	conn *zookeeper.Conn
}

func NewZookeeperLocker(conn *zookeeper.Conn) *ZookeeperLocker {
	return &ZookeeperLocker{conn: conn}
}

func (l *ZookeeperLocker) Lock(ctx context.Context, key string) (func() error, error) {
	dl, err := zookeeper.NewDistributedLock(l.conn, key)
	if err != nil {
		return nil, errors.Wrapf(err, "prepare lock %s", key)
	}
	if err := dl.Lock(ctx); err != nil {
		return nil, errors.Wrapf(err, "acquire lock %s", key)
	}
	return dl.Unlock, nil
}
