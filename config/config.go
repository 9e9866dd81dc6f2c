package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"poolSize"`
	MinIdleConns int           `yaml:"minIdleConns"`
	MaxRetries   int           `yaml:"maxRetries"`
	ResultTTL    time.Duration `yaml:"resultTTL"`
}

// InputConfig points at a single JSON file or a directory of them.
type InputConfig struct {
	Path    string `yaml:"path"`
	Workers int    `yaml:"workers"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads the YAML file at path (or $SENSOR_ANALYZER_CONFIG) over the defaults and then
// applies environment overrides. An empty path with no env var yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SENSOR_ANALYZER_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			GracefulTimeout: 30 * time.Second,
			MaxBodyBytes:    32 << 20,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			PoolSize:     50,
			MinIdleConns: 10,
			MaxRetries:   3,
			ResultTTL:    5 * time.Minute,
		},
		Input:   InputConfig{Path: "test_data", Workers: 4},
		Output:  OutputConfig{Dir: "test_data_reports"},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.maxBodyBytes must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.Redis.ResultTTL < 0 {
		return errors.New("redis.resultTTL must not be negative")
	}
	if c.Redis.PoolSize < 0 || c.Redis.MinIdleConns < 0 {
		return errors.New("redis pool sizes must not be negative")
	}
	if c.Input.Workers < 1 || c.Input.Workers > 16 {
		return errors.New("input.workers must be between 1 and 16")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENSOR_ANALYZER_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SENSOR_ANALYZER_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("SENSOR_ANALYZER_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	// REDIS_ADDR is kept for compatibility with existing deployments.
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SENSOR_ANALYZER_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SENSOR_ANALYZER_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SENSOR_ANALYZER_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("SENSOR_ANALYZER_REDIS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Redis.ResultTTL = d
		}
	}
	if v := os.Getenv("SENSOR_ANALYZER_INPUT"); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv("ANALYTICS_WORKERS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			cfg.Input.Workers = w
		}
	}
	if v := os.Getenv("SENSOR_ANALYZER_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SENSOR_ANALYZER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SENSOR_ANALYZER_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
}
