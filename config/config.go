package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Airline   AirlineConfig   `yaml:"airline"`
	Orders    OrdersConfig    `yaml:"orders"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	OrdersTopic string   `yaml:"orders_topic"`
	GroupID     string   `yaml:"group_id"`
}

type AirlineConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (a AirlineConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type OrdersConfig struct {
	DefaultHoldMinutes  int `yaml:"default_hold_minutes"`
	ExtensionMinutes    int `yaml:"extension_minutes"`
	LockTTLSeconds      int `yaml:"lock_ttl_seconds"`
	SeatMapConcurrency  int `yaml:"seat_map_concurrency"`
	IdempotencyTTLHours int `yaml:"idempotency_ttl_hours"`
}

func (o OrdersConfig) DefaultHold() time.Duration {
	return time.Duration(o.DefaultHoldMinutes) * time.Minute
}

func (o OrdersConfig) Extension() time.Duration {
	return time.Duration(o.ExtensionMinutes) * time.Minute
}

func (o OrdersConfig) LockTTL() time.Duration {
	return time.Duration(o.LockTTLSeconds) * time.Second
}

func (o OrdersConfig) IdempotencyTTL() time.Duration {
	return time.Duration(o.IdempotencyTTLHours) * time.Hour
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnv lets secrets stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("AIRLINE_ACCESS_TOKEN"); v != "" {
		c.Airline.AccessToken = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Airline.APIVersion == "" {
		c.Airline.APIVersion = "v2"
	}
	if c.Airline.TimeoutSeconds <= 0 {
		c.Airline.TimeoutSeconds = 30
	}
	if c.Orders.DefaultHoldMinutes <= 0 {
		c.Orders.DefaultHoldMinutes = 20
	}
	if c.Orders.ExtensionMinutes <= 0 {
		c.Orders.ExtensionMinutes = 20
	}
	if c.Orders.LockTTLSeconds <= 0 {
		c.Orders.LockTTLSeconds = 30
	}
	if c.Orders.SeatMapConcurrency <= 0 {
		c.Orders.SeatMapConcurrency = 4
	}
	if c.Orders.IdempotencyTTLHours <= 0 {
		c.Orders.IdempotencyTTLHours = 24
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}
}
