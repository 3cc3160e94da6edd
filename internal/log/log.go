// Package log provides the process-wide logger behind a small facade so the
// logging backend stays an implementation detail of this package.
package log

import (
	"sync"
)

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsDebugEnabled() bool
}

// LoggerConfig selects level, line layout, and output targets. Stdout is
// always written; a file appender is added when File is set.
type LoggerConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`
	Pattern string           `mapstructure:"pattern" yaml:"pattern"`
	Time    string           `mapstructure:"time" yaml:"time"`
	File    *FileAppenderOpt `mapstructure:"file" yaml:"file,omitempty"`
}

// FileAppenderOpt configures the rotating file appender.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size,omitempty"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups,omitempty"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age,omitempty"`
	Compress   bool   `mapstructure:"compress" yaml:"compress,omitempty"`
}

func defaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Pattern: "%time [%level] %msg\n",
		Time:    "2006-01-02 15:04:05",
	}
}

var (
	once   sync.Once
	logger Logger
)

// GetLogger returns the process logger, initializing it with defaults when
// Init was never called.
func GetLogger() Logger {
	if logger == nil {
		Init(nil)
	}
	return logger
}

// Init configures the process logger exactly once; later calls are no-ops.
// A nil cfg selects the defaults.
func Init(cfg *LoggerConfig) {
	once.Do(func() {
		if cfg == nil {
			cfg = defaultConfig()
		}
		if err := initByConfig(cfg); err != nil {
			panic(err)
		}
	})
}
