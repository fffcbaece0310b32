// Package config 提供 TOML 配置加载、环境变量覆盖与基础校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 鉴权配置
	Auth AuthConfig `mapstructure:"auth"`
	// 运费配置
	Shipping ShippingConfig `mapstructure:"shipping"`
	// 支付配置
	Payment PaymentConfig `mapstructure:"payment"`
	// 防刷限流配置
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	// 通知配置
	Notification NotificationConfig `mapstructure:"notification"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"8080"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"30"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"30"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：仅 mysql
	Driver string `mapstructure:"driver" default:"mysql"`
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns" default:"25"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime" default:"300"`
	// 是否启用 SQL 日志
	LogEnabled bool `mapstructure:"log_enabled" default:"false"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold" default:"1000"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 主机地址
	Host string `mapstructure:"host" default:"localhost"`
	// 端口
	Port int `mapstructure:"port" default:"6379"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db" default:"0"`
	// 最大连接数
	MaxPoolSize int `mapstructure:"max_pool_size" default:"10"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"3"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"3"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// Consumer Group ID
	GroupID string `mapstructure:"group_id"`
	// 消费者会话超时（秒）
	SessionTimeout int `mapstructure:"session_timeout" default:"10"`
	// 生产者最大重试次数
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff" default:"100"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" default:"info"`
	// 输出格式
	Format string `mapstructure:"format" default:"json"`
	// 输出目标
	Output string `mapstructure:"output" default:"stdout"`
	// 文件路径
	FilePath string `mapstructure:"file_path" default:"logs/app.log"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size" default:"100"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups" default:"10"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age" default:"30"`
	// 是否压缩
	Compress bool `mapstructure:"compress" default:"true"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller" default:"true"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Prometheus 监听端口
	Port int `mapstructure:"port" default:"9090"`
	// 指标路径
	Path string `mapstructure:"path" default:"/metrics"`
}

// AuthConfig 鉴权配置
type AuthConfig struct {
	// JWT 签名密钥
	JWTSecret string `mapstructure:"jwt_secret"`
	// Token 有效期（小时）
	TokenTTL int `mapstructure:"token_ttl" default:"72"`
}

// ShippingConfig 运费配置（不允许硬编码，统一由配置下发）
type ShippingConfig struct {
	// 首都城市匹配词（小写），城市名包含该词即视为首都配送区
	CapitalToken string `mapstructure:"capital_token" default:"dhaka"`
	// 首都区标准运费（塔卡）
	CapitalStandardFee int64 `mapstructure:"capital_standard_fee" default:"100"`
	// 首都区加急运费（塔卡），不参与免邮
	CapitalExpressFee int64 `mapstructure:"capital_express_fee" default:"200"`
	// 首都区外统一运费（塔卡）
	OutsideFlatFee int64 `mapstructure:"outside_flat_fee" default:"160"`
	// 免邮门槛（塔卡），仅首都区标准配送适用
	FreeShippingThreshold int64 `mapstructure:"free_shipping_threshold" default:"5000"`
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	// 线下收款手机号（移动钱包预付运费用）
	CollectionNumber string `mapstructure:"collection_number"`
	// 支持的移动钱包
	WalletProviders []string `mapstructure:"wallet_providers"`
}

// AttemptPolicyConfig 按次数的失败计数限流策略
type AttemptPolicyConfig struct {
	// 窗口内允许的最大失败次数
	MaxAttempts int `mapstructure:"max_attempts"`
	// 滑动窗口长度（秒）
	WindowSeconds int `mapstructure:"window_seconds"`
	// 触发锁定后的锁定时长（秒）
	LockoutSeconds int `mapstructure:"lockout_seconds"`
}

// RateLimitConfig 防刷限流配置
type RateLimitConfig struct {
	// 登录失败限流
	Login AttemptPolicyConfig `mapstructure:"login"`
	// 折扣码尝试限流
	Discount AttemptPolicyConfig `mapstructure:"discount"`
	// HTTP 层按 IP 的 QPS 限流
	HTTPQPS int `mapstructure:"http_qps" default:"50"`
	// HTTP 层突发容量
	HTTPBurst int `mapstructure:"http_burst" default:"100"`
	// 是否启用 HTTP 层限流
	HTTPEnabled bool `mapstructure:"http_enabled" default:"true"`
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	// 客户邮件通知 topic
	EmailTopic string `mapstructure:"email_topic" default:"notification.email"`
	// 管理员告警 topic
	AdminTopic string `mapstructure:"admin_topic" default:"notification.admin"`
	// 管理员 webhook 地址
	AdminWebhookURL string `mapstructure:"admin_webhook_url"`
	// SMTP 地址
	SMTPAddr string `mapstructure:"smtp_addr"`
	// 发件人
	SMTPFrom string `mapstructure:"smtp_from"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Shipping.CapitalToken == "" {
		return fmt.Errorf("shipping.capital_token is required")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.session_timeout", 10)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("auth.token_ttl", 72)

	v.SetDefault("shipping.capital_token", "dhaka")
	v.SetDefault("shipping.capital_standard_fee", 100)
	v.SetDefault("shipping.capital_express_fee", 200)
	v.SetDefault("shipping.outside_flat_fee", 160)
	v.SetDefault("shipping.free_shipping_threshold", 5000)

	v.SetDefault("payment.wallet_providers", []string{"bkash", "nagad", "rocket"})

	v.SetDefault("ratelimit.login.max_attempts", 5)
	v.SetDefault("ratelimit.login.window_seconds", 900)
	v.SetDefault("ratelimit.login.lockout_seconds", 1800)
	v.SetDefault("ratelimit.discount.max_attempts", 10)
	v.SetDefault("ratelimit.discount.window_seconds", 300)
	v.SetDefault("ratelimit.discount.lockout_seconds", 600)
	v.SetDefault("ratelimit.http_qps", 50)
	v.SetDefault("ratelimit.http_burst", 100)
	v.SetDefault("ratelimit.http_enabled", true)

	v.SetDefault("notification.email_topic", "notification.email")
	v.SetDefault("notification.admin_topic", "notification.admin")
}
