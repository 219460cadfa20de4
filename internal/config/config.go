// Package config handles global configuration loading using viper.
package config

// ServerConfig is the top-level static configuration for the resource
// server. Maps to the root of the YAML/env configuration.
type ServerConfig struct {
	// DataRoot is the base directory under which every manager's dataPath
	// is derived as <DataRoot>/<plugin>/<resourceType>.
	DataRoot string `mapstructure:"data_root" yaml:"data_root"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig mirrors internal/log.LoggerConfig's mapstructure tags so it can
// be decoded straight out of viper and handed to log.Init/log.Reconfigure.
type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Console string `mapstructure:"console" yaml:"console"`
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Time    string `mapstructure:"time" yaml:"time"`
	File    struct {
		Filename   string `mapstructure:"filename" yaml:"filename"`
		MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
		MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
		MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
		Compress   bool   `mapstructure:"compress" yaml:"compress"`
	} `mapstructure:"file" yaml:"file"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file/env override is
// present, sane for local development.
func Default() *ServerConfig {
	return &ServerConfig{
		DataRoot: "./data",
		Log: LogConfig{
			Level:   "info",
			Console: "pattern",
			Pattern: "%time [%level] %field %msg\n",
			Time:    "2006-01-02T15:04:05.000Z07:00",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}
