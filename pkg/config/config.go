package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Provide(NewConfig)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

var (
	ErrMissingToken = errors.New("bot token is not set")
	ErrInvalidMode  = errors.New("invalid bot mode")

	ErrInvalidCacheDriver = errors.New("invalid cache driver")
)

type IConfig interface {
	Get(key string) interface{}
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetInt64Slice(key string) []int64
	GetString(key string) string
	GetStringSlice(key string) []string
	GetDuration(key string) time.Duration
	Set(key string, value interface{})
}

// Flags carries command-line overrides. Zero values leave the
// environment-derived setting untouched.
type Flags struct {
	EnvFile string
	Mode    string
}

type Params struct {
	fx.In

	Flags Flags `optional:"true"`
}

type config struct {
	cfg *viper.Viper
}

func NewConfig(p Params) (IConfig, error) {
	if p.Flags.EnvFile != "" {
		if err := godotenv.Load(p.Flags.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %q: %w", p.Flags.EnvFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := viper.New()
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	_ = cfg.BindEnv("bot.token", "BOT_TOKEN")
	_ = cfg.BindEnv("bot.mode", "BOT_MODE")
	_ = cfg.BindEnv("bot.debug", "BOT_DEBUG")
	_ = cfg.BindEnv("bot.pool_size", "BOT_POOL_SIZE")
	_ = cfg.BindEnv("bot.poll_timeout", "BOT_POLL_TIMEOUT")
	_ = cfg.BindEnv("bot.admin_ids", "BOT_ADMIN_IDS")
	_ = cfg.BindEnv("bot.id_generator", "BOT_ID_GENERATOR")
	_ = cfg.BindEnv("bot.shutdown_timeout", "BOT_SHUTDOWN_TIMEOUT")
	_ = cfg.BindEnv("bot.lang_ttl", "BOT_LANG_TTL")
	_ = cfg.BindEnv("webhook.addr", "WEBHOOK_ADDR")
	_ = cfg.BindEnv("webhook.path", "WEBHOOK_PATH")
	_ = cfg.BindEnv("webhook.url", "WEBHOOK_URL")
	_ = cfg.BindEnv("webhook.secret", "WEBHOOK_SECRET")
	_ = cfg.BindEnv("cache.driver", "CACHE_DRIVER")
	_ = cfg.BindEnv("redis.addrs", "REDIS_ADDRS")
	_ = cfg.BindEnv("redis.username", "REDIS_USERNAME")
	_ = cfg.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = cfg.BindEnv("redis.db", "REDIS_DB")
	_ = cfg.BindEnv("redis.prefix", "REDIS_PREFIX")
	_ = cfg.BindEnv("log.level", "LOG_LEVEL")
	_ = cfg.BindEnv("log.file", "LOG_FILE")

	cfg.SetDefault("bot.mode", ModePolling)
	cfg.SetDefault("bot.pool_size", 10)
	cfg.SetDefault("bot.poll_timeout", 60)
	cfg.SetDefault("bot.id_generator", "uuid")
	cfg.SetDefault("bot.shutdown_timeout", 10*time.Second)
	cfg.SetDefault("bot.lang_ttl", 30*24*time.Hour)
	cfg.SetDefault("webhook.addr", ":8080")
	cfg.SetDefault("webhook.path", "/telegram/webhook")
	cfg.SetDefault("cache.driver", "memory")
	cfg.SetDefault("redis.addrs", "localhost:6379")
	cfg.SetDefault("redis.prefix", "botrouter")
	cfg.SetDefault("log.level", "info")

	if p.Flags.Mode != "" {
		cfg.Set("bot.mode", p.Flags.Mode)
	}

	c := &config{cfg: cfg}
	if err := Validate(c); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Validate checks the settings every mode needs.
func Validate(c IConfig) error {
	if c.GetString("bot.token") == "" {
		return ErrMissingToken
	}

	switch mode := c.GetString("bot.mode"); mode {
	case ModePolling, ModeWebhook:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	switch driver := c.GetString("cache.driver"); driver {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCacheDriver, driver)
	}

	if c.GetInt("bot.pool_size") <= 0 {
		return fmt.Errorf("bot.pool_size must be positive, got %d", c.GetInt("bot.pool_size"))
	}
	return nil
}

func (c *config) Get(key string) interface{} {
	return c.cfg.Get(key)
}

func (c *config) GetBool(key string) bool {
	return c.cfg.GetBool(key)
}

func (c *config) GetInt(key string) int {
	return c.cfg.GetInt(key)
}

func (c *config) GetInt64(key string) int64 {
	return c.cfg.GetInt64(key)
}

// GetInt64Slice accepts either a list value or a comma-separated string,
// which is what environment variables provide.
func (c *config) GetInt64Slice(key string) []int64 {
	raw := c.cfg.Get(key)
	if s, ok := raw.(string); ok {
		parts := splitList(s)
		out := make([]int64, 0, len(parts))
		for _, part := range parts {
			if v, err := cast.ToInt64E(part); err == nil {
				out = append(out, v)
			}
		}
		return out
	}
	return cast.ToInt64Slice(raw)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *config) GetString(key string) string {
	return c.cfg.GetString(key)
}

// GetStringSlice splits string values on commas, like GetInt64Slice.
func (c *config) GetStringSlice(key string) []string {
	s, ok := c.cfg.Get(key).(string)
	if !ok {
		return c.cfg.GetStringSlice(key)
	}
	return splitList(s)
}

func (c *config) GetDuration(key string) time.Duration {
	return c.cfg.GetDuration(key)
}

func (c *config) Set(key string, value interface{}) {
	c.cfg.Set(key, value)
}
