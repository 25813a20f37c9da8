package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.ListenHost)
	assert.Equal(t, 9998, cfg.Server.ListenPort)
	assert.Equal(t, 60*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 16, cfg.Poll.Concurrency)
	assert.Equal(t, []string{"localhost:2181"}, cfg.ZooKeeper.Hosts)
	assert.Equal(t, "/compactcoord/lock", cfg.ZooKeeper.LockPath)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	os.Setenv("COORDINATOR_LISTEN_PORT", "7000")
	os.Setenv("COORDINATOR_ZK_HOSTS", "zk1:2181,zk2:2181")
	defer func() {
		os.Unsetenv("COORDINATOR_LISTEN_PORT")
		os.Unsetenv("COORDINATOR_ZK_HOSTS")
	}()

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.ListenPort)
	assert.Equal(t, []string{"zk1:2181", "zk2:2181"}, cfg.ZooKeeper.Hosts)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidListenPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ListenPort = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "listen_port")
}

func TestValidate_MissingZooKeeperHosts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZooKeeper.Hosts = nil
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "zookeeper.hosts")
}

func TestValidate_MissingLockPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZooKeeper.LockPath = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lock_path")
}

func TestValidate_DefaultsLoggingWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = ""
	cfg.Logging.Format = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}
