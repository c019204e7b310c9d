package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Log        LogConfig                 `mapstructure:"log"`
	Dispatcher service.DispatcherConfig  `mapstructure:"dispatcher"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Policies   map[string]map[string]any `mapstructure:"policies"` // key: route policy id
}

type ServerConfig struct {
	Port string `mapstructure:"port"`

	// /v1 全局限流, qps <= 0 表示不限流
	RateLimitQPS   float64 `mapstructure:"rate_limit_qps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// 业务数据: 每个 owner 每日最多签发的令牌数, 0 表示不限
	MaxDailyTokens int `mapstructure:"max_daily_tokens"`
}

type LogConfig struct {
	// 每行日志的前后缀
	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`

	// 策略未声明级别时使用, debug | info
	Level string `mapstructure:"level"`

	// 内部 logger 级别, trace | debug | info | warn | error
	InternalLevel string `mapstructure:"internal_level"`

	Loggers []NamedLogger `mapstructure:"loggers"`
}

// NamedLogger is one entry of log.loggers. Names are kept as a value because
// viper lower-cases map keys.
type NamedLogger struct {
	Name   string `mapstructure:"name"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultLevel is the policy level used when a policy declares none.
func (c LogConfig) DefaultLevel() model.Level {
	return model.ParseLevel(c.Level)
}

// Specs returns the named logger specs keyed by their exact name.
func (c LogConfig) Specs() map[string]logger.Spec {
	out := make(map[string]logger.Spec, len(c.Loggers))
	for _, l := range c.Loggers {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		out[name] = logger.Spec{Level: l.Level, Format: l.Format, Output: l.Output}
	}
	return out
}

// Policy returns fallback with the keys configured under policies.<key>
// laid over it, resolved against log.level. Keys absent from the override
// keep the fallback's value.
func (c *Config) Policy(key string, fallback model.Policy) *model.Policy {
	p := fallback
	raw, ok := c.Policies[strings.ToLower(key)]
	if !ok {
		return p.Resolved(c.Log.DefaultLevel())
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err == nil {
		err = dec.Decode(raw)
	}
	if err != nil {
		slog.Warn("invalid policy override, using defaults", "policy", key, "error", err)
		p = fallback
	}
	return p.Resolved(c.Log.DefaultLevel())
}

func Load() (*Config, error) {
	return load(viper.New(), ".", "./configs")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variables support
	// e.g. CALLLOG_DISPATCHER_CORE_WORKERS
	v.SetEnvPrefix("calllog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Info("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := service.DefaultDispatcherConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit_qps", 0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.max_daily_tokens", 0)
	v.SetDefault("log.prefix", "")
	v.SetDefault("log.suffix", "")
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.internal_level", "info")
	v.SetDefault("log.loggers", []map[string]any{
		{"name": model.DefaultLoggerName, "level": "debug", "format": "text", "output": "stdout"},
	})
	v.SetDefault("dispatcher.core_workers", def.CoreWorkers)
	v.SetDefault("dispatcher.max_workers", def.MaxWorkers)
	v.SetDefault("dispatcher.queue_capacity", def.QueueCapacity)
	v.SetDefault("dispatcher.keep_alive", def.KeepAlive)
	v.SetDefault("dispatcher.drain_timeout", def.DrainTimeout)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
