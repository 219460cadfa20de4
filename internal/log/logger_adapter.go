package log

import (
	"os"

	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sirupsen/logrus"
)

// LoggerConfig drives Init. It is decoded from viper (see internal/config),
// so field names follow the server's mapstructure/yaml config keys.
type LoggerConfig struct {
	// Pattern is used when Console is "pattern" (e.g. "%time [%level] %field %msg").
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Time    string `mapstructure:"time" yaml:"time"`
	Level   string `mapstructure:"level" yaml:"level"`
	// Console selects the stdout formatter: "pattern" (default) or "prefixed"
	// (colorized logrus-prefixed-formatter, easier to read from a terminal).
	Console string `mapstructure:"console" yaml:"console"`
	// File, when non-empty, adds a lumberjack-backed rotating file sink
	// alongside stdout.
	File FileAppenderOpt `mapstructure:"file" yaml:"file"`
}

type logrusAdapter struct {
	entry *logrus.Entry
}

func initByConfig(cfg *LoggerConfig) error {
	l := logrus.New()

	switch cfg.Console {
	case "prefixed":
		l.SetFormatter(&prefixed.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   true,
			TimestampFormat: cfg.Time,
		})
	default:
		pattern := cfg.Pattern
		if pattern == "" {
			pattern = "%time [%level] %field %msg\n"
		}
		timeFmt := cfg.Time
		if timeFmt == "" {
			timeFmt = "2006-01-02T15:04:05.000Z07:00"
		}
		l.SetFormatter(&formatter{pattern: pattern, time: timeFmt})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	writers := NewMultiWriter().Add(os.Stdout)
	if cfg.File.Filename != "" {
		writers = writers.AddFileAppender(cfg.File)
	}
	l.SetOutput(writers)
	l.SetReportCaller(true)

	logger = &logrusAdapter{
		entry: logrus.NewEntry(l),
	}
	return nil
}

// Reconfigure builds a new logger from cfg and makes it the one GetLogger
// returns, for use from a config hot-reload callback. Logger values
// obtained from GetLogger earlier keep their previous level and output.
func Reconfigure(cfg *LoggerConfig) error {
	return initByConfig(cfg)
}

func (l *logrusAdapter) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}
func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
func (l *logrusAdapter) IsInfoEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel)
}
