package config

import (
	"fmt"
	"time"

	"github.com/hubride/ride-pool-system/pkg/configparser"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Redis    RedisConfig
		Auth     Auth
		Fares    FareDefaults
	}

	ServerConfig struct {
		Port     string `env:"SERVER_PORT" default:"3000"`
		LogLevel string `env:"SERVER_LOGLEVEL" default:"DEBUG"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"hub_user"`
		Password string `env:"DATABASE_PASSWORD" default:"hub_pass"`
		Database string `env:"DATABASE_DATABASE" default:"hub_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	RedisConfig struct {
		Host     string `env:"REDIS_HOST" default:"localhost"`
		Port     string `env:"REDIS_PORT" default:"6379"`
		Password string `env:"REDIS_PASSWORD" default:""`
		DB       int    `env:"REDIS_DB" default:"0"`
	}

	Auth struct {
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	// FareDefaults seed the settings record on first boot. After that
	// the operator-editable settings row in the database wins.
	// Amounts are pesewas; the solo multiplier is basis points.
	FareDefaults struct {
		PragiaBaseFare           int64 `env:"FARES_PRAGIA_BASE" default:"500"`
		TaxiBaseFare             int64 `env:"FARES_TAXI_BASE" default:"800"`
		ShuttleBaseFare          int64 `env:"FARES_SHUTTLE_BASE" default:"300"`
		SoloMultiplierBP         int64 `env:"FARES_SOLO_MULTIPLIER_BP" default:"25000"`
		CommissionPerSeat        int64 `env:"FARES_COMMISSION_PER_SEAT" default:"200"`
		ShuttleCommissionPerSeat int64 `env:"FARES_SHUTTLE_COMMISSION_PER_SEAT" default:"50"`
		RegistrationFee          int64 `env:"FARES_REGISTRATION_FEE" default:"2000"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c RedisConfig) GetPassword() string {
	return c.Password
}

func (c RedisConfig) GetDB() int {
	return c.DB
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading environment variables and parsing into the config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}
