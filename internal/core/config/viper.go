package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to config keys for BindFlags.
var flagKeys = map[string]string{
	"host":           "server.host",
	"grpc-port":      "server.grpc_port",
	"http-port":      "server.http_port",
	"cache-capacity": "engine.cache_capacity",
	"chunk-size":     "engine.chunk_size",
	"auth":           "auth.enabled",
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
// flags may be nil; only flags the user actually set take part.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*ServerConfig, error) {
	v := viper.New()

	d := DefaultServerConfig()
	v.SetDefault("server.host", d.Host)
	v.SetDefault("server.grpc_port", d.GRPCPort)
	v.SetDefault("server.http_port", d.HTTPPort)
	v.SetDefault("server.request_timeout", d.RequestTimeout.String())
	v.SetDefault("server.max_text_bytes", d.MaxTextBytes)
	v.SetDefault("server.max_rules", d.MaxRules)
	v.SetDefault("engine.cache_capacity", d.CacheCapacity)
	v.SetDefault("engine.chunk_size", d.ChunkSize)
	v.SetDefault("ledger.ttl", d.LedgerTTL.String())
	v.SetDefault("auth.enabled", d.AuthEnabled)

	// Bind environment variables with RK_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Host:           v.GetString("server.host"),
		GRPCPort:       v.GetInt("server.grpc_port"),
		HTTPPort:       v.GetInt("server.http_port"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
		MaxTextBytes:   v.GetInt("server.max_text_bytes"),
		MaxRules:       v.GetInt("server.max_rules"),
		CacheCapacity:  v.GetInt("engine.cache_capacity"),
		ChunkSize:      v.GetInt("engine.chunk_size"),
		LedgerTTL:      v.GetDuration("ledger.ttl"),
		AuthEnabled:    v.GetBool("auth.enabled"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges and positive limits.
func validateConfig(cfg *ServerConfig) error {
	if cfg.GRPCPort <= 0 || cfg.GRPCPort > 65535 {
		return fmt.Errorf("grpc_port must be between 1 and 65535, got %d", cfg.GRPCPort)
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", cfg.HTTPPort)
	}
	if cfg.GRPCPort == cfg.HTTPPort {
		return fmt.Errorf("grpc_port and http_port must differ, both are %d", cfg.GRPCPort)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxTextBytes <= 0 {
		return fmt.Errorf("max_text_bytes must be positive, got %d", cfg.MaxTextBytes)
	}
	if cfg.MaxRules <= 0 {
		return fmt.Errorf("max_rules must be positive, got %d", cfg.MaxRules)
	}
	if cfg.CacheCapacity < 0 {
		return fmt.Errorf("cache_capacity must not be negative, got %d", cfg.CacheCapacity)
	}
	if cfg.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", cfg.ChunkSize)
	}
	if cfg.LedgerTTL <= 0 {
		return fmt.Errorf("ledger ttl must be positive, got %v", cfg.LedgerTTL)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("auth.hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
