package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`

	ReportsLimit int    `mapstructure:"reports_limit" yaml:"reports_limit"`
	BanDuration  int    `mapstructure:"ban_duration" yaml:"ban_duration"` // seconds
	TimeFormat   string `mapstructure:"time_format" yaml:"time_format"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	OutboundBuffer    int           `mapstructure:"outbound_buffer" yaml:"outbound_buffer"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxLineBytes      int           `mapstructure:"max_line_bytes" yaml:"max_line_bytes"`
	RateLimitBurst    int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	RateLimitInterval time.Duration `mapstructure:"rate_limit_interval" yaml:"rate_limit_interval"`

	HistoryDriver   string `mapstructure:"history_driver" yaml:"history_driver"`
	HistoryDSN      string `mapstructure:"history_dsn" yaml:"history_dsn"`
	HistoryCapacity int    `mapstructure:"history_capacity" yaml:"history_capacity"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

const (
	HistoryDriverMemory = "memory"
	HistoryDriverSQLite = "sqlite"
)

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:              "127.0.0.1",
		Port:              8080,
		HTTPAddr:          "127.0.0.1:8081",
		ReportsLimit:      3,
		BanDuration:       30,
		TimeFormat:        "HH:MM:SS",
		LogLevel:          "info",
		LogFormat:         "console",
		OutboundBuffer:    64,
		WriteTimeout:      10 * time.Second,
		MaxLineBytes:      4096,
		RateLimitBurst:    10,
		RateLimitInterval: time.Second,
		HistoryDriver:     HistoryDriverMemory,
		HistoryDSN:        ":memory:",
		HistoryCapacity:   100,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Addr is the TCP listen address for the chat protocol.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BanDurationTime converts the ban duration to a time.Duration.
func (c Config) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// HTTPAddr is not touched since an empty value means "disabled".
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.ReportsLimit != 0 {
		c.ReportsLimit = other.ReportsLimit
	}
	if other.BanDuration != 0 {
		c.BanDuration = other.BanDuration
	}
	if other.TimeFormat != "" {
		c.TimeFormat = other.TimeFormat
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.HistoryDriver != "" {
		c.HistoryDriver = other.HistoryDriver
	}
	if other.HistoryDSN != "" {
		c.HistoryDSN = other.HistoryDSN
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ReportsLimit <= 0 {
		errs = append(errs, errors.New("reports_limit must be positive"))
	}
	if c.BanDuration < 0 {
		errs = append(errs, errors.New("ban_duration must not be negative"))
	}
	if c.TimeFormat == "" {
		errs = append(errs, errors.New("time_format is required"))
	}
	switch c.HistoryDriver {
	case HistoryDriverMemory, HistoryDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown history_driver %q", c.HistoryDriver))
	}
	return errors.Join(errs...)
}
