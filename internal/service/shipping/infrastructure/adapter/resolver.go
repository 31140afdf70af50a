package adapter

import (
	"context"
	"fmt"
	"strings"

	"nexus-shipping/internal/pkg/nacos"
)

// StaticResolver 按服务名返回配置好的 base URL
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, service string) (string, error) {
	base, ok := r[service]
	if !ok || base == "" {
		return "", fmt.Errorf("no url configured for service %s", service)
	}
	return strings.TrimRight(base, "/"), nil
}

// NacosResolver 通过 Nacos 选出一个健康实例，并拼上该服务的路由前缀
type NacosResolver struct {
	client    *nacos.Client
	basePaths map[string]string
}

// NewNacosResolver basePaths 的 key 是服务名，value 形如 /v1/orders
func NewNacosResolver(client *nacos.Client, basePaths map[string]string) *NacosResolver {
	return &NacosResolver{client: client, basePaths: basePaths}
}

func (r *NacosResolver) Resolve(_ context.Context, service string) (string, error) {
	ip, port, err := r.client.DiscoverServiceInstance(service)
	if err != nil {
		return "", err
	}
	path := strings.TrimRight(r.basePaths[service], "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("http://%s:%d%s", ip, port, path), nil
}
