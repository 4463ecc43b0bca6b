package config

import (
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

// CircuitBreakerConfig holds the construction-time defaults for every
// breaker. RecoveryTimeout is expressed in (possibly fractional) seconds
// so that CIRCUIT_BREAKER_RECOVERY_TIMEOUT=2.5 works from the environment.
type CircuitBreakerConfig struct {
	FailureThreshold int     `mapstructure:"failure_threshold"`
	RecoveryTimeout  float64 `mapstructure:"recovery_timeout"`
	HalfOpenMaxCalls int     `mapstructure:"half_open_max_calls"`
}

// RecoveryDuration converts the configured seconds into a time.Duration.
func (c CircuitBreakerConfig) RecoveryDuration() time.Duration {
	return time.Duration(c.RecoveryTimeout * float64(time.Second))
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type AdminConfig struct {
	AuthSecret string `mapstructure:"auth_secret"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Events         EventsConfig         `mapstructure:"events"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Admin          AdminConfig          `mapstructure:"admin"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("circuit_breaker.failure_threshold", 5)
	viper.SetDefault("circuit_breaker.recovery_timeout", 30.0)
	viper.SetDefault("circuit_breaker.half_open_max_calls", 1)
	viper.SetDefault("events.buffer_size", 1000)
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("admin.auth_secret", "")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// AutomaticEnv with the "."->"_" replacer maps
	// circuit_breaker.failure_threshold onto
	// CIRCUIT_BREAKER_FAILURE_THRESHOLD, and so on for every key.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.Required,
			validation.By(func(value interface{}) error {
				cb, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				return validation.ValidateStruct(&cb,
					validation.Field(&cb.FailureThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&cb.RecoveryTimeout,
						validation.Required,
						validation.By(validatePositiveSeconds),
					),
					validation.Field(&cb.HalfOpenMaxCalls,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Events,
			validation.Required,
			validation.By(func(value interface{}) error {
				ec, ok := value.(EventsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an EventsConfig")
				}
				return validation.ValidateStruct(&ec,
					validation.Field(&ec.BufferSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validatePositiveSeconds(value interface{}) error {
	seconds, ok := value.(float64)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a float")
	}

	if seconds <= 0 {
		return validation.NewError("validation_invalid_seconds", "must be a positive number of seconds")
	}

	return nil
}
