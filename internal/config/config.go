package config

import (
	"errors"
	"time"
)

// Config represents the coordinator service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Poll      PollConfig      `mapstructure:"poll"`
	Retry     RetryConfig     `mapstructure:"retry"`
	ZooKeeper ZooKeeperConfig `mapstructure:"zookeeper"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents gRPC server configuration (spec.md section 6:
// client listen port, port-search flag, min worker threads, max message
// size).
type ServerConfig struct {
	ListenHost      string        `mapstructure:"listen_host"`
	ListenPort      int           `mapstructure:"listen_port"`
	PortSearch      bool          `mapstructure:"port_search"`
	MinThreads      int           `mapstructure:"min_threads"`
	MaxMessageSize  int           `mapstructure:"max_message_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PollConfig configures QueuePoller (spec.md section 4.3).
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
	RPCTimeout  time.Duration `mapstructure:"rpc_timeout"`
}

// RetryConfig configures internal/rpcretry callers (spec.md section 9).
type RetryConfig struct {
	CompletionBudget int           `mapstructure:"completion_budget"`
	InitialBackoff   time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff       time.Duration `mapstructure:"max_backoff"`
}

// ZooKeeperConfig backs both the leader lock and the tablet-server
// membership watch.
type ZooKeeperConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	LockPath       string        `mapstructure:"lock_path"`
	TserverPath    string        `mapstructure:"tserver_path"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
}

// MetricsConfig represents Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.ListenHost == "" {
		return errors.New("server.listen_host is required")
	}
	if c.Server.ListenPort <= 0 || c.Server.ListenPort > 65535 {
		return errors.New("server.listen_port must be between 1 and 65535")
	}
	if c.Server.MinThreads <= 0 {
		return errors.New("server.min_threads must be positive")
	}
	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be positive")
	}
	if c.Poll.Concurrency <= 0 {
		return errors.New("poll.concurrency must be positive")
	}
	if c.Retry.CompletionBudget <= 0 {
		return errors.New("retry.completion_budget must be positive")
	}
	if len(c.ZooKeeper.Hosts) == 0 {
		return errors.New("zookeeper.hosts is required")
	}
	if c.ZooKeeper.LockPath == "" {
		return errors.New("zookeeper.lock_path is required")
	}
	if c.ZooKeeper.TserverPath == "" {
		return errors.New("zookeeper.tserver_path is required")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenHost:      "0.0.0.0",
			ListenPort:      9998,
			PortSearch:      true,
			MinThreads:      8,
			MaxMessageSize:  10 * 1024 * 1024,
			ShutdownTimeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval:    60 * time.Second,
			Concurrency: 16,
			RPCTimeout:  10 * time.Second,
		},
		Retry: RetryConfig{
			CompletionBudget: 10,
			InitialBackoff:   500 * time.Millisecond,
			MaxBackoff:       30 * time.Second,
		},
		ZooKeeper: ZooKeeperConfig{
			Hosts:          []string{"localhost:2181"},
			LockPath:       "/compactcoord/lock",
			TserverPath:    "/accumulo/tservers",
			SessionTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
