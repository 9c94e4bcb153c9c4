// Package config 提供了统一的配置加载、校验与热更新能力.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wyfcoding/mcpricer/logging"
	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/payoff"
)

// Config 全局顶级配置结构.
type Config struct {
	Version    string           `mapstructure:"version"    toml:"version"`
	Server     ServerConfig     `mapstructure:"server"     toml:"server"`
	Simulation SimulationConfig `mapstructure:"simulation" toml:"simulation"`
	Options    OptionsConfig    `mapstructure:"options"    toml:"options"`
	Engine     EngineConfig     `mapstructure:"engine"     toml:"engine"`
	Report     ReportConfig     `mapstructure:"report"     toml:"report"`
	Log        LogConfig        `mapstructure:"log"        toml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    toml:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"    toml:"tracing"`
	Cache      CacheConfig      `mapstructure:"cache"      toml:"cache"`
	Minio      MinioConfig      `mapstructure:"minio"      toml:"minio"`
	Kafka      KafkaConfig      `mapstructure:"kafka"      toml:"kafka"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"  toml:"ratelimit"`
}

// ServerConfig 定义服务器运行时的基础网络与环境参数.
type ServerConfig struct {
	Name        string     `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string     `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        HTTPConfig `mapstructure:"http"        toml:"http"`
}

// HTTPConfig 定价 HTTP 服务的监听与超时参数.
type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"                toml:"addr"`
	Port              int           `mapstructure:"port"                toml:"port"                validate:"min=1,max=65535"`
	Timeout           time.Duration `mapstructure:"timeout"             toml:"timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"      toml:"max_body_bytes"`
}

// ListenAddr 返回 host:port 形式的监听地址.
func (c HTTPConfig) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

// SimulationConfig 模拟参数，对应一次定价运行的 GBM 设定.
type SimulationConfig struct {
	InitialPrice  float64 `mapstructure:"initial_price"  toml:"initial_price"  validate:"gt=0"`
	RiskFreeRate  float64 `mapstructure:"risk_free_rate" toml:"risk_free_rate"`
	DividendYield float64 `mapstructure:"dividend_yield" toml:"dividend_yield"`
	Volatility    float64 `mapstructure:"volatility"     toml:"volatility"     validate:"gte=0"`
	Maturity      float64 `mapstructure:"maturity"       toml:"maturity"       validate:"gt=0"`
	Steps         int     `mapstructure:"steps"          toml:"steps"          validate:"min=1"`
	Paths         int     `mapstructure:"paths"          toml:"paths"          validate:"min=1"`
}

// ToSimulationConfig 转换为模拟核心使用的值类型.
func (s SimulationConfig) ToSimulationConfig() montecarlo.SimulationConfig {
	return montecarlo.SimulationConfig{
		InitialPrice:  s.InitialPrice,
		RiskFreeRate:  s.RiskFreeRate,
		DividendYield: s.DividendYield,
		Volatility:    s.Volatility,
		Maturity:      s.Maturity,
		Steps:         s.Steps,
		Paths:         s.Paths,
	}
}

// OptionsConfig 默认定价的期权变体与欧式行权价.
type OptionsConfig struct {
	Variants   []string `mapstructure:"variants"    toml:"variants"`
	CallStrike float64  `mapstructure:"call_strike" toml:"call_strike" validate:"gt=0"`
	PutStrike  float64  `mapstructure:"put_strike"  toml:"put_strike"  validate:"gt=0"`
}

// Specs 解析变体名称，欧式看涨/看跌分别使用配置的行权价.
func (o OptionsConfig) Specs() ([]payoff.Spec, error) {
	specs := make([]payoff.Spec, 0, len(o.Variants))
	for _, name := range o.Variants {
		v, err := payoff.ParseVariant(name)
		if err != nil {
			return nil, err
		}
		spec := payoff.Spec{Variant: v}
		switch v {
		case payoff.EuropeanCall:
			spec.Strike = o.CallStrike
		case payoff.EuropeanPut:
			spec.Strike = o.PutStrike
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// EngineConfig 定价引擎的并发与数值设置.
type EngineConfig struct {
	Workers        int    `mapstructure:"workers"         toml:"workers"         validate:"gte=0"`
	ChunkSize      int    `mapstructure:"chunk_size"      toml:"chunk_size"      validate:"gte=0"`
	Seed           uint64 `mapstructure:"seed"            toml:"seed"`
	Truncate       bool   `mapstructure:"truncate"        toml:"truncate"`
	TruncatePlaces int32  `mapstructure:"truncate_places" toml:"truncate_places" validate:"gte=0,lte=12"`
}

// ReportConfig 报告输出设置.
type ReportConfig struct {
	Text         bool   `mapstructure:"text"          toml:"text"`
	HistogramDir string `mapstructure:"histogram_dir" toml:"histogram_dir"`
	Bins         int    `mapstructure:"bins"          toml:"bins"          validate:"min=1"`
	Upload       bool   `mapstructure:"upload"        toml:"upload"`
	UploadPrefix string `mapstructure:"upload_prefix" toml:"upload_prefix"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        toml:"file"`        // 日志文件路径
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`    // 单个文件最大大小 (MB)
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // 最大备份数
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`     // 最大保留天数
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig 分布式链路追踪（OpenTelemetry）配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"gte=0,lte=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// CacheConfig 定价结果本地缓存 (bigcache) 参数.
type CacheConfig struct {
	Enabled          bool          `mapstructure:"enabled"             toml:"enabled"`
	LifeWindow       time.Duration `mapstructure:"life_window"         toml:"life_window"`
	CleanWindow      time.Duration `mapstructure:"clean_window"        toml:"clean_window"`
	Shards           int           `mapstructure:"shards"              toml:"shards"`
	MaxEntrySize     int           `mapstructure:"max_entry_size"      toml:"max_entry_size"`
	HardMaxCacheSize int           `mapstructure:"hard_max_cache_size" toml:"hard_max_cache_size"`
}

// MinioConfig 定义 S3 兼容对象存储 MinIO 的连接参数.
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"          toml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"     toml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" toml:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"       toml:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"           toml:"use_ssl"`
}

// KafkaConfig 价格事件发布参数.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"       toml:"enabled"`
	Topic        string        `mapstructure:"topic"         toml:"topic"         validate:"required_if=Enabled true"`
	Brokers      []string      `mapstructure:"brokers"       toml:"brokers"       validate:"required_if=Enabled true"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" toml:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks" toml:"required_acks"`
	MaxAttempts  int           `mapstructure:"max_attempts"  toml:"max_attempts"`
	Async        bool          `mapstructure:"async"         toml:"async"`
}

// RateLimitConfig 定义按客户端 IP 的令牌桶限流与模拟并发上限.
type RateLimitConfig struct {
	Rate          int           `mapstructure:"rate"           toml:"rate"`
	Burst         int           `mapstructure:"burst"          toml:"burst"`
	Enabled       bool          `mapstructure:"enabled"        toml:"enabled"`
	MaxConcurrent int           `mapstructure:"max_concurrent" toml:"max_concurrent"` // 同时运行的定价请求上限，0 为不限
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"   toml:"wait_timeout"`
}

var (
	mu        sync.Mutex
	vInstance = viper.New()
	onReload  []func(*Config)
	validate  = validator.New()
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	mu.Lock()
	onReload = append(onReload, hook)
	mu.Unlock()
}

func setDefaults(v *viper.Viper) {
	ref := montecarlo.DefaultSimulationConfig()

	v.SetDefault("version", "v0.1.0")
	v.SetDefault("server.name", "mcpricer")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.timeout", 30*time.Second)
	v.SetDefault("server.http.read_header_timeout", 5*time.Second)
	v.SetDefault("server.http.max_body_bytes", 1<<20)

	v.SetDefault("simulation.initial_price", ref.InitialPrice)
	v.SetDefault("simulation.risk_free_rate", ref.RiskFreeRate)
	v.SetDefault("simulation.dividend_yield", ref.DividendYield)
	v.SetDefault("simulation.volatility", ref.Volatility)
	v.SetDefault("simulation.maturity", ref.Maturity)
	v.SetDefault("simulation.steps", ref.Steps)
	v.SetDefault("simulation.paths", ref.Paths)

	v.SetDefault("options.variants", []string{string(payoff.AverageStrikeCall), string(payoff.AverageStrikePut)})
	v.SetDefault("options.call_strike", payoff.DefaultCallStrike)
	v.SetDefault("options.put_strike", payoff.DefaultPutStrike)

	v.SetDefault("engine.seed", 42)
	v.SetDefault("engine.truncate_places", 4)

	v.SetDefault("report.text", true)
	v.SetDefault("report.bins", 50)
	v.SetDefault("report.upload_prefix", "histograms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.port", "9090")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("tracing.service_name", "mcpricer")
	v.SetDefault("tracing.sampler_ratio", 1.0)

	v.SetDefault("cache.life_window", 10*time.Minute)
	v.SetDefault("cache.clean_window", time.Minute)
	v.SetDefault("cache.shards", 64)
	v.SetDefault("cache.max_entry_size", 4096)
	v.SetDefault("cache.hard_max_cache_size", 64)

	v.SetDefault("kafka.write_timeout", 5*time.Second)
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.max_attempts", 3)

	v.SetDefault("ratelimit.rate", 20)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("ratelimit.max_concurrent", 4)
	v.SetDefault("ratelimit.wait_timeout", 2*time.Second)
}

// Load 加载配置文件 (TOML)，叠加 APP_ 前缀的环境变量并校验.
// path 为空时只使用默认值与环境变量.
func Load(path string, conf *Config) error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config error: %w", err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	mu.Lock()
	vInstance = v
	mu.Unlock()
	return nil
}

// WatchConfig 监听配置文件变更，重新加载后更新日志级别并依次调用已注册的回调.
func WatchConfig(conf *Config) {
	v := GetViper()
	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)
		reload(v, conf)
	})
	v.WatchConfig()
}

// reload 校验失败时保留旧配置.
func reload(v *viper.Viper, conf *Config) bool {
	var next Config
	if err := v.Unmarshal(&next); err != nil {
		slog.Error("reload config unmarshal failed", "error", err)
		return false
	}
	if err := validate.Struct(&next); err != nil {
		slog.Error("reload config validation failed", "error", err)
		return false
	}

	*conf = next
	logging.SetLevel(conf.Log.Level)
	slog.Info("config hot-reloaded and validated successfully")

	mu.Lock()
	hooks := append([]func(*Config){}, onReload...)
	mu.Unlock()
	for _, hook := range hooks {
		hook(conf)
	}
	return true
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		slog.Error("failed to unmarshal config for masking", "error", err)
		return
	}

	mask(configMap)

	maskedJSON, err := json.MarshalIndent(configMap, "  ", "  ")
	if err != nil {
		slog.Error("failed to marshal masked config", "error", err)
		return
	}

	slog.Info("Current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}

// GetViper 返回最近一次 Load 使用的 Viper 实例.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return vInstance
}
