package config

import (
	"fmt"
	"strings"
	"time"

	"fxtransfer/pkg/logger"

	"github.com/spf13/viper"
)

const envPrefix = "FXTRANSFER"

// Config 全局配置结构
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Log            logger.Config        `mapstructure:"log"`
	Storage        StorageConfig        `mapstructure:"storage"`
	MySQL          MySQLConfig          `mapstructure:"mysql"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Transfer       TransferConfig       `mapstructure:"transfer"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Outbox         OutboxConfig         `mapstructure:"outbox"`
}

type ServerConfig struct {
	Port     int `mapstructure:"port"`
	WorkerID int `mapstructure:"worker_id"` // 雪花算法机器ID
}

const (
	StorageDriverMySQL  = "mysql"
	StorageDriverMemory = "memory"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // mysql | memory
	Seed   bool   `mapstructure:"seed"`   // 启动时写入演示数据
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	RateTTLSeconds int    `mapstructure:"rate_ttl_seconds"` // 汇率缓存有效期
}

func (c RedisConfig) RateTTL() time.Duration {
	return time.Duration(c.RateTTLSeconds) * time.Second
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	TransferCommitted string `mapstructure:"transfer_committed"`
}

type TransferConfig struct {
	EnableCrossCurrency bool    `mapstructure:"enable_cross_currency"`
	FeeRate             float64 `mapstructure:"fee_rate"`
	MaxRetryAttempts    int     `mapstructure:"max_retry_attempts"`
}

type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`  // 每秒令牌数
	Burst int     `mapstructure:"burst"` // 桶容量
}

type CircuitBreakerConfig struct {
	FailureRatio        float64 `mapstructure:"failure_ratio"`
	MinRequests         uint32  `mapstructure:"min_requests"`
	IntervalSeconds     int     `mapstructure:"interval_seconds"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds"`
	MaxHalfOpenRequests uint32  `mapstructure:"max_half_open_requests"`
}

func (c CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type OutboxConfig struct {
	MaxRetryCount int `mapstructure:"max_retry_count"`
	IntervalMs    int `mapstructure:"interval_ms"`
	BatchSize     int `mapstructure:"batch_size"`
}

func (c OutboxConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.worker_id", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("storage.driver", StorageDriverMySQL)
	v.SetDefault("storage.seed", false)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "fxtransfer")
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rate_ttl_seconds", 300)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic.transfer_committed", "transfer_committed")

	v.SetDefault("transfer.enable_cross_currency", false)
	v.SetDefault("transfer.fee_rate", 0.01)
	v.SetDefault("transfer.max_retry_attempts", 3)

	v.SetDefault("rate_limit.rate", 100)
	v.SetDefault("rate_limit.burst", 200)

	v.SetDefault("circuit_breaker.failure_ratio", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_half_open_requests", 3)

	v.SetDefault("outbox.max_retry_count", 5)
	v.SetDefault("outbox.interval_ms", 1000)
	v.SetDefault("outbox.batch_size", 100)
}

// Load 读取配置：代码默认值 < 配置文件 < FXTRANSFER_* 环境变量
// configPath 为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverMySQL, StorageDriverMemory:
	default:
		return fmt.Errorf("storage.driver 不支持: %q", c.Storage.Driver)
	}
	if c.Transfer.FeeRate < 0 {
		return fmt.Errorf("transfer.fee_rate 不能为负: %v", c.Transfer.FeeRate)
	}
	// 失败率超过阈值才熔断，阈值为 1 时永远不会熔断
	if c.CircuitBreaker.FailureRatio <= 0 || c.CircuitBreaker.FailureRatio >= 1 {
		return fmt.Errorf("circuit_breaker.failure_ratio 必须在 (0, 1) 之间: %v", c.CircuitBreaker.FailureRatio)
	}
	return nil
}
