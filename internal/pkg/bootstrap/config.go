// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath 是默认配置文件位置，可通过 SHIPPING_CONFIG 覆盖
const DefaultConfigPath = "configs/shipping.yaml"

type Config struct {
	App       AppConfig       `yaml:"app"`
	Infra     InfraConfig     `yaml:"infra"`
	Order     OrderConfig     `yaml:"order"`
	Inventory InventoryConfig `yaml:"inventory"`
	Shipment  ShipmentConfig  `yaml:"shipment"`
}

type AppConfig struct {
	ServiceName string `yaml:"serviceName"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
}

type InfraConfig struct {
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	AutoMigrate     bool          `yaml:"autoMigrate"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type RedisConfig struct {
	Addrs string `yaml:"addrs"`
}

type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
	// GroupID 是 shipment-event-listener 的消费者组
	GroupID string `yaml:"groupId"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type ZookeeperConfig struct {
	Servers        string        `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

// DownstreamConfig 描述一个下游服务。ServiceName 非空且启用 Nacos 时走服务发现，否则使用 URL。
type DownstreamConfig struct {
	Mock        bool          `yaml:"mock"`
	URL         string        `yaml:"url"`
	ServiceName string        `yaml:"serviceName"`
	BasePath    string        `yaml:"basePath"`
	Timeout     time.Duration `yaml:"timeout"`
}

type OrderConfig struct {
	DownstreamConfig `yaml:",inline"`
}

type InventoryConfig struct {
	DownstreamConfig `yaml:",inline"`
	// Store 是 mock 库存的后端: memory 或 redis
	Store       string `yaml:"store"`
	Concurrency int    `yaml:"concurrency"`
}

type ShipmentConfig struct {
	// Storage 是运单仓储后端: memory 或 mysql
	Storage string `yaml:"storage"`
	// Lock 是更新 saga 的互斥后端: none、local 或 zookeeper
	Lock        string        `yaml:"lock"`
	LockTimeout time.Duration `yaml:"lockTimeout"`
	// TransitionRule 是可选的 CEL 状态迁移守卫，为空表示不限制
	TransitionRule string `yaml:"transitionRule"`
}

// DefaultConfig 与原有部署保持一致: mock 下游、内存存储。
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{ServiceName: "shipping-service", Port: 8003, LogLevel: "info"},
		Infra: InfraConfig{
			MySQL:     MySQLConfig{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: time.Hour},
			Redis:     RedisConfig{Addrs: "localhost:6379"},
			Kafka:     KafkaConfig{Brokers: "localhost:9092", Topic: "shipment-events", GroupID: "shipment-event-listener"},
			Zookeeper: ZookeeperConfig{Servers: "localhost:2181", SessionTimeout: 5 * time.Second},
			Nacos:     NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
		Order: OrderConfig{DownstreamConfig{
			Mock:    true,
			URL:     "http://127.0.0.1:8001/v1/orders",
			Timeout: 5 * time.Second,
		}},
		Inventory: InventoryConfig{
			DownstreamConfig: DownstreamConfig{
				Mock:    true,
				URL:     "http://127.0.0.1:8002/v1/inventory",
				Timeout: 5 * time.Second,
			},
			Store:       "memory",
			Concurrency: 4,
		},
		Shipment: ShipmentConfig{Storage: "memory", Lock: "none", LockTimeout: 10 * time.Second},
	}
}

// LoadConfig 依次应用默认值、配置文件和环境变量。文件不存在时只用默认值和环境变量。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = getEnv("SHIPPING_CONFIG", DefaultConfigPath)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	applyEnv(cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	cfg.App.Port = getEnvInt("HTTP_PORT", cfg.App.Port)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.Infra.MySQL.DSN = getEnv("MYSQL_DSN", cfg.Infra.MySQL.DSN)
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Zookeeper.Servers = getEnv("ZK_SERVERS", cfg.Infra.Zookeeper.Servers)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	cfg.Order.URL = getEnv("ORDER_SERVICE_URL", cfg.Order.URL)
	cfg.Order.Mock = getEnvBool("USE_MOCK_ORDER", cfg.Order.Mock)
	cfg.Inventory.URL = getEnv("INVENTORY_SERVICE_URL", cfg.Inventory.URL)
	cfg.Inventory.Mock = getEnvBool("USE_MOCK_INVENTORY", cfg.Inventory.Mock)
}

// Validate 检查枚举型配置项
func (c *Config) Validate() error {
	switch c.Shipment.Storage {
	case "memory", "mysql":
	default:
		return errors.Errorf("unknown shipment storage %q", c.Shipment.Storage)
	}
	if c.Shipment.Storage == "mysql" && c.Infra.MySQL.DSN == "" {
		return errors.New("mysql storage requires infra.mysql.dsn")
	}
	switch c.Shipment.Lock {
	case "none", "local", "zookeeper":
	default:
		return errors.Errorf("unknown shipment lock %q", c.Shipment.Lock)
	}
	switch c.Inventory.Store {
	case "memory", "redis":
	default:
		return errors.Errorf("unknown inventory store %q", c.Inventory.Store)
	}
	if c.App.Port <= 0 {
		return errors.Errorf("invalid port %d", c.App.Port)
	}
	return nil
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
