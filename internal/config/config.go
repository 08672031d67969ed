package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL        string
	PoolsFile     string
	Interval      time.Duration
	Threshold     float64
	PriceCacheTTL time.Duration
	SweepEvery    int

	DataDir    string
	ExportJSON bool
	ExportCSV  bool

	WebhookURL     string
	ProxyURL       string
	UseProxy       bool
	WebhookRetries int

	AlertCooldown time.Duration
	RedisURL      string
	PostgresDSN   string
	MetricsListen string

	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
// A .env file in the working directory is folded into the environment
// first, which is where deployments keep the webhook settings.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("POOLWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The webhook knobs also answer to their historical unprefixed env
	// names, so an existing .env keeps working.
	_ = v.BindEnv("webhook-url", "POOLWATCH_WEBHOOK_URL", "WEBHOOK_URL")
	_ = v.BindEnv("proxy-url", "POOLWATCH_PROXY_URL", "PROXY_URL")
	_ = v.BindEnv("use-proxy", "POOLWATCH_USE_PROXY", "USE_PROXY")

	v.SetDefault("rpc", "https://bsc-dataseed.binance.org/")
	v.SetDefault("pools", "./pools.json")
	v.SetDefault("interval", 30*time.Second)
	v.SetDefault("threshold", 5.0)
	v.SetDefault("price-cache-ttl", 5*time.Minute)
	v.SetDefault("sweep-every", 10)
	v.SetDefault("data-dir", "./data")
	v.SetDefault("export-json", true)
	v.SetDefault("export-csv", true)
	v.SetDefault("webhook-retries", 2)
	v.SetDefault("alert-cooldown", 10*time.Minute)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		PoolsFile:      v.GetString("pools"),
		Interval:       v.GetDuration("interval"),
		Threshold:      v.GetFloat64("threshold"),
		PriceCacheTTL:  v.GetDuration("price-cache-ttl"),
		SweepEvery:     v.GetInt("sweep-every"),
		DataDir:        v.GetString("data-dir"),
		ExportJSON:     v.GetBool("export-json"),
		ExportCSV:      v.GetBool("export-csv"),
		WebhookURL:     v.GetString("webhook-url"),
		ProxyURL:       v.GetString("proxy-url"),
		UseProxy:       truthy(v.GetString("use-proxy")),
		WebhookRetries: v.GetInt("webhook-retries"),
		AlertCooldown:  v.GetDuration("alert-cooldown"),
		RedisURL:       v.GetString("redis-url"),
		PostgresDSN:    v.GetString("pg-dsn"),
		MetricsListen:  v.GetString("metrics-listen"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate rejects values the monitor cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return errors.New("rpc url is required")
	}
	if strings.TrimSpace(c.PoolsFile) == "" {
		return errors.New("pools file path is required")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.Threshold < 0 {
		return errors.New("threshold must not be negative")
	}
	if c.SweepEvery <= 0 {
		return errors.New("sweep-every must be positive")
	}
	return nil
}

// truthy matches the historical USE_PROXY parsing, which accepted yes
// alongside the usual boolean spellings.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
