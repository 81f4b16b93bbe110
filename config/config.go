// Package config loads the orders function configuration from the
// environment.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultRegion     = "us-east-1"
	DefaultTable      = "women-necessity"
	DefaultHealthPath = "/womencare"
	DefaultOrderPath  = "/order"
	DefaultOrdersPath = "/orders"
	DefaultLogLevel   = "info"
)

// ConfigEnv names the environment variable that may hold the whole
// configuration as a json document.
const ConfigEnv = "ORDERS_CONFIG"

// Config holds the process level settings of the orders function.
type Config struct {
	Region     string `json:"region"`
	Table      string `json:"table"`
	Endpoint   string `json:"endpoint"`
	HealthPath string `json:"health-path"`
	OrderPath  string `json:"order-path"`
	OrdersPath string `json:"orders-path"`
	LogLevel   string `json:"log-level"`
}

// settings maps each json config key to its environment variable and default.
var settings = []struct {
	key, env, def string
}{
	{"region", "AWS_REGION", DefaultRegion},
	{"table", "ORDERS_TABLE", DefaultTable},
	{"endpoint", "DYNAMODB_ENDPOINT", ""},
	{"health-path", "HEALTH_PATH", DefaultHealthPath},
	{"order-path", "ORDER_PATH", DefaultOrderPath},
	{"orders-path", "ORDERS_PATH", DefaultOrdersPath},
	{"log-level", "LOG_LEVEL", DefaultLogLevel},
}

// Load reads the configuration and validates it. Each setting comes from its
// environment variable, then the json document in ORDERS_CONFIG, then the
// default. Empty variables count as unset.
//
//	AWS_REGION, ORDERS_TABLE, DYNAMODB_ENDPOINT, HEALTH_PATH, ORDER_PATH,
//	ORDERS_PATH, LOG_LEVEL
//
//	ORDERS_CONFIG='{"region": "eu-west-1", "table": "orders", "log-level": "warn"}'
func Load() (*Config, error) {
	v := viper.New()

	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, errors.Wrapf(err, "failed binding %s", s.env)
		}
	}

	if doc := os.Getenv(ConfigEnv); doc != "" {
		v.SetConfigType("json")
		if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", ConfigEnv)
		}
	}

	cfg := &Config{
		Region:     v.GetString("region"),
		Table:      v.GetString("table"),
		Endpoint:   v.GetString("endpoint"),
		HealthPath: v.GetString("health-path"),
		OrderPath:  v.GetString("order-path"),
		OrdersPath: v.GetString("orders-path"),
		LogLevel:   v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the required settings are present and the paths are
// distinct.
func (cfg *Config) Validate() error {
	if cfg.Region == "" {
		return errors.New("region is required")
	}

	if cfg.Table == "" {
		return errors.New("table is required")
	}

	paths := map[string]bool{}
	for _, p := range []string{cfg.HealthPath, cfg.OrderPath, cfg.OrdersPath} {
		if p == "" {
			return errors.New("route paths must not be empty")
		}

		if paths[p] {
			return errors.Errorf("route path '%s' configured twice", p)
		}

		paths[p] = true
	}

	if _, err := zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log level '%s'", cfg.LogLevel)
	}

	return nil
}

// NewLogger returns a production json logger at the given level. The debug
// level gets the human friendly development logger instead.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level '%s'", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
