package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string
	DBPath          string
	LogDir          string
	LogFile         string
	AppPackage      string
	AppActivity     string
	WindowSize      int
	CollectInterval time.Duration
}

// SetDefaults installs the configuration defaults and environment bindings.
// Every key can be overridden with a DEVICELAB_* environment variable or a
// config file handed to viper by the command layer.
func SetDefaults() {
	viper.SetEnvPrefix("DEVICELAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("db_path", "devicelab.db")
	viper.SetDefault("log_dir", "log")
	viper.SetDefault("log_file", "devicelab.log")
	viper.SetDefault("app_package", "com.google.android.youtube")
	viper.SetDefault("app_activity", ".HomeActivity")
	viper.SetDefault("window_size", 10)
	viper.SetDefault("collect_interval", "10s")
}

func New() *Config {
	return &Config{
		ListenAddr:      viper.GetString("listen_addr"),
		DBPath:          viper.GetString("db_path"),
		LogDir:          viper.GetString("log_dir"),
		LogFile:         viper.GetString("log_file"),
		AppPackage:      viper.GetString("app_package"),
		AppActivity:     viper.GetString("app_activity"),
		WindowSize:      viper.GetInt("window_size"),
		CollectInterval: viper.GetDuration("collect_interval"),
	}
}

// Validate rejects a broken deployment at startup so request handlers never
// see an invalid window size or interval.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.AppPackage == "" {
		return fmt.Errorf("app package is required")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("invalid window size: %d (must be positive)", c.WindowSize)
	}
	if c.CollectInterval <= 0 {
		return fmt.Errorf("invalid collect interval: %s (must be positive)", c.CollectInterval)
	}
	return nil
}
