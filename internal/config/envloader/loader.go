// Package envloader loads configuration through viper, layering environment
// variables over an optional config file over built-in defaults. Operators can
// run the admin tool with nothing but TOKENADMIN_DATABASE_PASSWORD set.
package envloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/ahrav/registry-tokens/internal/config"
)

// EnvLoader resolves configuration from environment variables prefixed with
// TOKENADMIN_, falling back to an optional YAML file and then to defaults.
// Nested keys use underscores: database.host becomes TOKENADMIN_DATABASE_HOST.
type EnvLoader struct {
	// configFile, when non-empty, names a YAML file merged beneath the
	// environment layer. A missing file is not an error.
	configFile string
}

// NewEnvLoader creates an EnvLoader. configFile may be empty to run purely
// from environment variables and defaults.
func NewEnvLoader(configFile string) *EnvLoader {
	return &EnvLoader{configFile: configFile}
}

// Load resolves the configuration.
func (l *EnvLoader) Load(ctx context.Context) (*config.Config, error) {
	v := viper.New()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	// Registering the key is what lets AutomaticEnv surface it during Unmarshal.
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "registry_tokens")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.connect_timeout", "30s")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("TOKENADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			// With an explicit path viper reports a missing file as a plain
			// *fs.PathError, not its ConfigFileNotFoundError.
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
