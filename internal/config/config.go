package config

import (
	"fmt"
	"time"
)

// Config represents the top-level configuration for the token admin service.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig holds the PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`

	// ConnectTimeout bounds the initial connectivity probe at startup.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" mapstructure:"connect_timeout"`
}

// DSN renders the config as a PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, sslMode)
}

// LogConfig controls structured log output.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string `yaml:"level,omitempty" mapstructure:"level"`
}
