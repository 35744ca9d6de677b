// Package config loads the service's startup configuration. Configuration
// is read once at boot and immutable afterwards.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full startup configuration.
type Config struct {
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	Server   ServerConfig   `mapstructure:"server"`
	Registry RegistryConfig `mapstructure:"registry"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// ServerConfig configures the admin HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// RegistryConfig carries the registry's immutable startup parameters.
type RegistryConfig struct {
	AllowedChainIDs  []uint64 `mapstructure:"allowed_chain_ids" validate:"min=1"`
	LiquiditySources int      `mapstructure:"liquidity_sources" validate:"min=1"`
}

// AuthConfig selects the admin capability guard.
type AuthConfig struct {
	// Mode is "token" (static bearer token) or "jwt" (HS256 admin token).
	Mode        string `mapstructure:"mode" validate:"oneof=token jwt"`
	StaticToken string `mapstructure:"static_token" validate:"required_if=Mode token"`
	JWTSecret   string `mapstructure:"jwt_secret" validate:"required_if=Mode jwt"`
	JWTIssuer   string `mapstructure:"jwt_issuer"`
}

// NotifyConfig selects the notification sink.
type NotifyConfig struct {
	// Sink is "log" or "kafka".
	Sink         string   `mapstructure:"sink" validate:"oneof=log kafka"`
	KafkaBrokers []string `mapstructure:"kafka_brokers" validate:"required_if=Sink kafka"`
	KafkaTopic   string   `mapstructure:"kafka_topic" validate:"required_if=Sink kafka"`
}

// Load reads configuration from the given yaml file (optional) and the
// environment (prefix ASSETADMIN), applies defaults and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ASSETADMIN")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("registry.allowed_chain_ids", []uint64{1})
	v.SetDefault("registry.liquidity_sources", 1)
	v.SetDefault("auth.mode", "token")
	v.SetDefault("auth.static_token", "dev-admin-token")
	v.SetDefault("auth.jwt_issuer", "assetadmin")
	v.SetDefault("notify.sink", "log")
}
