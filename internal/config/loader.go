package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: Could not read config file %s: %v. Using defaults and environment variables.\n", configPath, err)
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides to config.
func applyEnvironmentOverrides(cfg *Config) {
	if host := os.Getenv("COORDINATOR_LISTEN_HOST"); host != "" {
		cfg.Server.ListenHost = host
	}
	if port := os.Getenv("COORDINATOR_LISTEN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.ListenPort = p
		}
	}

	if interval := os.Getenv("COORDINATOR_POLL_INTERVAL"); interval != "" {
		if secs, err := strconv.Atoi(interval); err == nil {
			cfg.Poll.Interval = time.Duration(secs) * time.Second
		}
	}
	if concurrency := os.Getenv("COORDINATOR_POLL_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			cfg.Poll.Concurrency = c
		}
	}

	if hosts := os.Getenv("COORDINATOR_ZK_HOSTS"); hosts != "" {
		cfg.ZooKeeper.Hosts = strings.Split(hosts, ",")
	}
	if lockPath := os.Getenv("COORDINATOR_ZK_LOCK_PATH"); lockPath != "" {
		cfg.ZooKeeper.LockPath = lockPath
	}
	if tserverPath := os.Getenv("COORDINATOR_ZK_TSERVER_PATH"); tserverPath != "" {
		cfg.ZooKeeper.TserverPath = tserverPath
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}
