// Package config loads the server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/j-emberton/HXforge/internal/engine"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Tables TablesConfig `yaml:"tables"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Address string   `yaml:"address" validate:"required"`
	Preload []string `yaml:"preload" validate:"dive,required"`
}

type TablesConfig struct {
	Dir        string `yaml:"dir" validate:"required"`
	Ext        string `yaml:"ext" validate:"required,startswith=."`
	Delimiter  string `yaml:"delimiter" validate:"required,len=1"`
	KeyColumn  string `yaml:"key_column" validate:"required"`
	Duplicates string `yaml:"duplicates" validate:"oneof=reject keep-first keep-last"`
	Bounds     string `yaml:"bounds" validate:"oneof=strict clamp extrapolate"`
	Watch      bool   `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error off"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Address: ":8080"},
		Tables: TablesConfig{
			Dir:        "tables",
			Ext:        engine.DefaultExt,
			Delimiter:  "\t",
			KeyColumn:  engine.DefaultKeyColumn,
			Duplicates: engine.DuplicateReject.String(),
			Bounds:     engine.BoundsStrict.String(),
			Watch:      true,
		},
		Log: LogConfig{Level: "info"},
	}
}

var validate = validator.New()

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	// validator counts runes; the loader splits on a single byte
	if len(c.Tables.Delimiter) != 1 {
		return fmt.Errorf("invalid config: tables.delimiter %q must be a single ASCII character", c.Tables.Delimiter)
	}
	return nil
}

// LoadOptions converts the tables section for the engine loader.
func (t TablesConfig) LoadOptions() (engine.LoadOptions, error) {
	dup, err := engine.ParseDuplicatePolicy(t.Duplicates)
	if err != nil {
		return engine.LoadOptions{}, err
	}
	return engine.LoadOptions{
		Delimiter:  t.Delimiter[0],
		KeyColumn:  t.KeyColumn,
		Duplicates: dup,
	}, nil
}

func (t TablesConfig) BoundsPolicy() (engine.BoundsPolicy, error) {
	return engine.ParseBoundsPolicy(t.Bounds)
}
