package main

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	"github.com/vine-io/markup"
	"github.com/vine-io/markup/activity"
	"github.com/vine-io/markup/schema"
)

const defaultConfig = "~/.markup.yaml"

// Config is read from ~/.markup.yaml unless --config names another file.
type Config struct {
	Indent      int                  `yaml:"indent"`
	Workers     int                  `yaml:"workers"`
	SharedCache bool                 `yaml:"shared_cache"`
	Xmlns       []schema.TypeMapping `yaml:"xmlns"`
}

func NewConfig() *Config {
	return &Config{Indent: 2, Workers: 4, SharedCache: true}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Indent, validation.Min(0), validation.Max(8)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.Xmlns),
	)
}

// loadConfig reads path over the defaults. A missing default file is not
// an error, a missing explicit one is.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfig
	}
	name, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}

	cfg := NewConfig()
	data, err := os.ReadFile(name)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", name, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

// serializer builds a serializer knowing the activity types and the
// configured xmlns aliases.
func (c *Config) serializer() (*markup.Serializer, error) {
	reg := schema.NewRegistry()
	if err := activity.Register(reg); err != nil {
		return nil, err
	}
	for _, m := range c.Xmlns {
		if err := reg.AddMapping(m); err != nil {
			return nil, err
		}
	}

	opts := []markup.Option{
		markup.WithRegistry(reg),
		markup.WithIndent(c.Indent),
	}
	if c.SharedCache {
		opts = append(opts, markup.WithSharedCache(schema.NewSharedCache()))
	}
	return markup.NewSerializer(opts...), nil
}
