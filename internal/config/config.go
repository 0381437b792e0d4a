package config

import (
	"errors"
	"fmt"
	"os"

	"trainbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Seating    SeatingConfig    `yaml:"seating"`
	Store      StoreConfig      `yaml:"store"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type SeatingConfig struct {
	TotalSeats         int `yaml:"total_seats"`
	SeatsPerRow        int `yaml:"seats_per_row"`
	LastRowSeats       int `yaml:"last_row_seats"`
	MaxSeatsPerBooking int `yaml:"max_seats_per_booking"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // file, sqlite
	Path    string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store path is required")
	}
	if c.Store.Backend != "file" && c.Store.Backend != "sqlite" {
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
	if c.Seating.TotalSeats <= 0 {
		return errors.New("seating.total_seats must be positive")
	}
	if c.Seating.SeatsPerRow <= 0 {
		return errors.New("seating.seats_per_row must be positive")
	}
	if c.Seating.LastRowSeats <= 0 || c.Seating.LastRowSeats > c.Seating.SeatsPerRow {
		return errors.New("seating.last_row_seats must be in [1, seats_per_row]")
	}
	if c.Seating.MaxSeatsPerBooking <= 0 {
		return errors.New("seating.max_seats_per_booking must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Seating.TotalSeats == 0 {
		c.Seating.TotalSeats = models.DefaultTotalSeats
	}
	if c.Seating.SeatsPerRow == 0 {
		c.Seating.SeatsPerRow = models.DefaultSeatsPerRow
	}
	if c.Seating.LastRowSeats == 0 {
		c.Seating.LastRowSeats = models.DefaultLastRowSeats
	}
	if c.Seating.MaxSeatsPerBooking == 0 {
		c.Seating.MaxSeatsPerBooking = models.MaxSeatsPerBooking
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
