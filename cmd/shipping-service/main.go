// cmd/shipping-service/main.go
package main

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"nexus-shipping/internal/pkg/bootstrap"
	"nexus-shipping/internal/pkg/database"
	"nexus-shipping/internal/pkg/httpclient"
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/metrics"
	"nexus-shipping/internal/pkg/mq"
	"nexus-shipping/internal/pkg/nacos"
	"nexus-shipping/internal/pkg/redis"
	"nexus-shipping/internal/pkg/tracing"
	"nexus-shipping/internal/pkg/zookeeper"
	"nexus-shipping/internal/service/shipping/application"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
	"nexus-shipping/internal/service/shipping/infrastructure"
	"nexus-shipping/internal/service/shipping/infrastructure/adapter"
	"nexus-shipping/internal/service/shipping/infrastructure/inventory"
	"nexus-shipping/internal/service/shipping/infrastructure/lock"
	"nexus-shipping/internal/service/shipping/infrastructure/policy"
	"nexus-shipping/internal/service/shipping/interfaces"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg, err := bootstrap.LoadConfig("")
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.ServiceName, cfg.App.LogLevel)

	if err := run(cfg); err != nil {
		zlog.Fatal().Err(err).Msg("shipping service stopped with error")
	}
}

func run(cfg *bootstrap.Config) error {
	ctx := context.Background()
	var hooks []bootstrap.ShutdownHook

	// 1. 初始化核心技术组件
	tp, err := tracing.InitTracerProvider(cfg.App.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		return err
	}
	hooks = append(hooks, bootstrap.ShutdownHook{Name: "tracer", Fn: tp.Shutdown})
	tracer := otel.Tracer(cfg.App.ServiceName)

	var nacosClient *nacos.Client
	if cfg.Infra.Nacos.Enabled {
		nacosClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			return err
		}
	}

	// 2. 运单仓储
	repo, closeRepo, err := newRepository(cfg)
	if err != nil {
		return err
	}
	hooks = append(hooks, bootstrap.ShutdownHook{Name: "repository", Fn: closeRepo})

	// 3. 下游网关
	orders := newOrderGateway(cfg, tracer, nacosClient)
	inv, closeInv, err := newInventoryGateway(ctx, cfg, tracer, nacosClient)
	if err != nil {
		return err
	}
	hooks = append(hooks, bootstrap.ShutdownHook{Name: "inventory", Fn: closeInv})

	opts := []application.Option{application.WithLockTimeout(cfg.Shipment.LockTimeout)}

	// 4. 事件、锁和迁移守卫
	if cfg.Infra.Kafka.Enabled {
		events := adapter.NewShipmentEventKafkaAdapter(mq.NewKafkaWriter(splitList(cfg.Infra.Kafka.Brokers), cfg.Infra.Kafka.Topic))
		hooks = append(hooks, bootstrap.ShutdownHook{Name: "kafka", Fn: func(context.Context) error { return events.Close() }})
		opts = append(opts, application.WithEventPublisher(events))
	} else {
		opts = append(opts, application.WithEventPublisher(adapter.NoopEventPublisher{}))
	}

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		return err
	}
	hooks = append(hooks, bootstrap.ShutdownHook{Name: "locker", Fn: closeLocker})
	opts = append(opts, application.WithLocker(locker))

	if rule := strings.TrimSpace(cfg.Shipment.TransitionRule); rule != "" {
		p, err := policy.NewCELPolicy(rule)
		if err != nil {
			return err
		}
		zlog.Info().Str("rule", p.String()).Msg("transition policy enabled")
		opts = append(opts, application.WithTransitionPolicy(p))
	}

	svc := application.NewShippingApplicationService(repo, orders, inv, tracer, opts...)
	handler := interfaces.NewShippingHandler(svc)
	metrics.HealthStatus.Set(1)

	return bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.App.ServiceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		Nacos:         nacosClient,
		ShutdownHooks: hooks,
	})
}

func noopClose(context.Context) error { return nil }

func newRepository(cfg *bootstrap.Config) (domain.ShipmentRepository, func(context.Context) error, error) {
	if cfg.Shipment.Storage != "mysql" {
		zlog.Info().Msg("using in-memory shipment repository")
		return infrastructure.NewMemoryShipmentRepository(), noopClose, nil
	}

	db, err := database.OpenMySQL(database.Options{
		DSN:             cfg.Infra.MySQL.DSN,
		MaxOpenConns:    cfg.Infra.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.Infra.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.Infra.MySQL.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	repo := infrastructure.NewGormShipmentRepository(db)
	if cfg.Infra.MySQL.AutoMigrate {
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, err
		}
	}
	return repo, func(context.Context) error { return database.Close(db) }, nil
}

func resolverFor(dc bootstrap.DownstreamConfig, service string, nacosClient *nacos.Client) port.Resolver {
	if nacosClient != nil && dc.ServiceName != "" {
		return adapter.NewNacosResolver(nacosClient, map[string]string{service: dc.BasePath})
	}
	return adapter.StaticResolver{service: dc.URL}
}

func serviceName(dc bootstrap.DownstreamConfig, fallback string) string {
	if dc.ServiceName != "" {
		return dc.ServiceName
	}
	return fallback
}

func newOrderGateway(cfg *bootstrap.Config, tracer trace.Tracer, nacosClient *nacos.Client) port.OrderGateway {
	dc := cfg.Order.DownstreamConfig
	if dc.Mock {
		zlog.Info().Msg("using mock order gateway")
		return adapter.NewMockOrderGateway()
	}
	name := serviceName(dc, adapter.OrderServiceName)
	client := httpclient.NewClient(tracer, dc.Timeout)
	return adapter.NewOrderHTTPAdapter(client, resolverFor(dc, name, nacosClient), name)
}

func newInventoryGateway(ctx context.Context, cfg *bootstrap.Config, tracer trace.Tracer, nacosClient *nacos.Client) (port.InventoryGateway, func(context.Context) error, error) {
	dc := cfg.Inventory.DownstreamConfig
	if !dc.Mock {
		name := serviceName(dc, adapter.InventoryServiceName)
		client := httpclient.NewClient(tracer, dc.Timeout)
		return adapter.NewInventoryHTTPAdapter(client, resolverFor(dc, name, nacosClient), name, cfg.Inventory.Concurrency), noopClose, nil
	}

	if cfg.Inventory.Store != "redis" {
		zlog.Info().Msg("using mock inventory gateway backed by memory")
		return adapter.NewStoreInventoryGateway(inventory.NewMemoryStore()), noopClose, nil
	}
	rdb, err := redis.NewClient(ctx, cfg.Infra.Redis.Addrs)
	if err != nil {
		return nil, nil, err
	}
	store, err := inventory.NewRedisStore(ctx, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	zlog.Info().Msg("using mock inventory gateway backed by redis")
	return adapter.NewStoreInventoryGateway(store), func(context.Context) error { return rdb.Close() }, nil
}

func newLocker(cfg *bootstrap.Config) (port.Locker, func(context.Context) error, error) {
	switch cfg.Shipment.Lock {
	case "local":
		return lock.NewLocalLocker(), noopClose, nil
	case "zookeeper":
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			return nil, nil, err
		}
		return lock.NewZookeeperLocker(conn), func(context.Context) error { conn.Close(); return nil }, nil
	default:
		return lock.Noop{}, noopClose, nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
