// Package config loads the stepctl configuration and pipeline files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "STEPCTL"

var validate = validator.New()

// Config represents the complete stepctl configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// LogConfig controls the logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	// Format is text or json.
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// PipelineConfig controls how pipelines run.
type PipelineConfig struct {
	// Concurrency is the number of steps executing at the same time.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("pipeline.concurrency", 1)
}

// Load reads cfgFile, or config.yaml in $HOME/.stepctl when cfgFile is empty, and the
// STEPCTL_* environment variables. A missing default file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".stepctl"))
		}

		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "unable to read config")
		}
	}

	cfg := &Config{}

	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}

	err = validate.Struct(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}
