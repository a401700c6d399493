// Package config loads layered configuration for the kvfsd daemon and the
// kvfs client, following the precedence CLI flags > environment variables >
// config file > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// LoggingConfig controls logger behavior, shared by both binaries.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DaemonConfig is the kvfsd configuration.
type DaemonConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`

	// ListenAddr is the TCP address the daemon accepts connections on.
	ListenAddr string `mapstructure:"listen"`

	// DataDir holds the three badger instances and the content directory.
	DataDir string `mapstructure:"data_dir"`

	// ShutdownTimeout bounds how long the daemon waits for active
	// connections to finish after it has closed its listener on shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ClientConfig is the kvfs client/mount configuration.
type ClientConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`

	// Name identifies the mount's shard, passed via --name.
	Name string `mapstructure:"name"`

	// ServerAddr is the daemon address, passed via --contents.
	ServerAddr string `mapstructure:"contents"`

	// MountPoint is the local directory the filesystem is bound to.
	MountPoint string `mapstructure:"mountpoint"`

	// SlotRingSize is the number of concurrently outstanding requests the
	// client connection can track. Spec default: 1024.
	SlotRingSize int `mapstructure:"slot_ring_size"`

	// RequestTimeout bounds how long a caller waits for a response before
	// the slot is reclaimed and an -ETIMEDOUT is returned.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultDaemonConfig returns the daemon's zero-config defaults.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		ListenAddr:      "0.0.0.0:8888",
		DataDir:         ".",
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultClientConfig returns the client's zero-config defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		SlotRingSize:   1024,
		RequestTimeout: 3 * time.Second,
	}
}

// LoadDaemonConfig loads the daemon config from flags/env/file/defaults. v
// must already have flag values bound (e.g. via v.BindPFlags).
func LoadDaemonConfig(v *viper.Viper) (*DaemonConfig, error) {
	if err := setupViper(v, "KVFSD", "kvfsd"); err != nil {
		return nil, err
	}

	cfg := DefaultDaemonConfig()
	// Registering every key as a viper default keeps an unset flag's empty
	// value from overriding it and lets the environment reach every key.
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("listen", cfg.ListenAddr)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	if err := decode(v, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientConfig loads the client config from flags/env/file/defaults.
func LoadClientConfig(v *viper.Viper) (*ClientConfig, error) {
	if err := setupViper(v, "KVFS", "kvfs"); err != nil {
		return nil, err
	}

	cfg := DefaultClientConfig()
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("slot_ring_size", cfg.SlotRingSize)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	if err := decode(v, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, envPrefix, configName string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/kvfs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A present-but-unreadable config file is a real error; a
			// missing one is not, since defaults apply.
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func decode(v *viper.Viper, out interface{}) error {
	hook := mapstructure.StringToTimeDurationHookFunc()
	if err := v.Unmarshal(out, viper.DecodeHook(hook)); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
