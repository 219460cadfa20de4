package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load reads ServerConfig from path (if non-empty) merged over Default().
// RESOURCED_-prefixed environment variables (e.g. RESOURCED_LOG_LEVEL)
// override only keys that the file at path sets; with an empty path, Load
// returns Default() and reads no environment variables.
func Load(path string) (*ServerConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RESOURCED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Watch loads path once and then invokes onChange every time the file is
// rewritten on disk, the way viper.WatchConfig drives hot-reload of
// internal/log's level/output without restarting the process. onChange
// receives the freshly reloaded config; loader errors during a reload are
// swallowed (the previous, known-good config stays in effect) and surfaced
// only through the returned initial load.
func Watch(path string, onChange func(*ServerConfig)) (*ServerConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, nil
	}
	v.OnConfigChange(func(_ fsnotify.Event) {
		reloaded := Default()
		if err := v.Unmarshal(reloaded); err == nil {
			onChange(reloaded)
		}
	})
	v.WatchConfig()
	return cfg, nil
}
