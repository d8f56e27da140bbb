package ebus

import (
	"github.com/caarlos0/env/v11"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	defaultName     = "default"
	defaultLogLevel = glog.Level(2)
)

type Option func(opts *Options)

type Options struct {
	name     string
	logLevel glog.Level
}

func buildOptions(opts ...Option) *Options {
	rlt := &Options{logLevel: -1}
	for _, opt := range opts {
		opt(rlt)
	}
	fillDefaults(rlt)
	return rlt
}

func fillDefaults(opts *Options) {
	if opts.name == "" {
		opts.name = defaultName
	}
	if opts.logLevel < 0 {
		opts.logLevel = defaultLogLevel
	}
}

// WithName sets the name printed in the dispatcher's log lines.
func WithName(name string) Option {
	return func(opts *Options) {
		opts.name = name
	}
}

// WithLogLevel sets the glog verbosity at which bookkeeping is logged.
func WithLogLevel(level glog.Level) Option {
	return func(opts *Options) {
		opts.logLevel = level
	}
}

// EnvConfig is the environment form of the dispatcher options.
type EnvConfig struct {
	Name     string `env:"EBUS_NAME"`
	LogLevel int    `env:"EBUS_LOG_LEVEL" envDefault:"2"`
}

// OptionsFromEnv reads EBUS_NAME and EBUS_LOG_LEVEL.
func OptionsFromEnv() ([]Option, error) {
	cfg, err := env.ParseAs[EnvConfig]()
	if err != nil {
		return nil, errors.Wrap(err, "parse ebus env config")
	}
	if cfg.LogLevel < 0 {
		return nil, errors.Errorf("EBUS_LOG_LEVEL must not be negative, got %d", cfg.LogLevel)
	}
	opts := []Option{WithLogLevel(glog.Level(cfg.LogLevel))}
	if cfg.Name != "" {
		opts = append(opts, WithName(cfg.Name))
	}
	return opts, nil
}
