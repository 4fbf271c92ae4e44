package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "REORG"

// Settings are the user defaults applied to every plan.
type Settings struct {
	UpdateReferences     bool   `mapstructure:"update_references"`
	UpdateQualifiedNames bool   `mapstructure:"update_qualified_names"`
	FilePatterns         string `mapstructure:"file_patterns"`
	LogLevel             string `mapstructure:"log_level"`
	LogFormat            string `mapstructure:"log_format"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		UpdateReferences: true,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// LoadSettings reads the YAML settings file at path. A missing file is not an
// error. Every key can be overridden by an environment variable such as
// REORG_LOG_LEVEL.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("update_references", defaults.UpdateReferences)
	v.SetDefault("update_qualified_names", defaults.UpdateQualifiedNames)
	v.SetDefault("file_patterns", defaults.FilePatterns)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read settings: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to stat settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}
