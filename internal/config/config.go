package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Options Options        `yaml:"options"`
	Notify  []NotifyTarget `yaml:"notify,omitempty" validate:"dive"`
}

// Options are the per-run settings. Every field is also exposed as a CLI flag
// named after its yaml tag.
type Options struct {
	MaxFailedShown   int    `yaml:"max_failed_shown" validate:"gt=0"`
	MaxPanickedShown int    `yaml:"max_panicked_shown" validate:"gt=0"`
	DetailWidth      int    `yaml:"detail_width" validate:"gte=0"`
	LogFile          string `yaml:"logfile"`
	Color            string `yaml:"color" validate:"oneof=auto always never"`
}

// NotifyTarget sends a digest of the run to a shoutrrr service URL.
type NotifyTarget struct {
	URL      string            `yaml:"url" validate:"required"`
	Template string            `yaml:"template"`
	When     string            `yaml:"when" validate:"omitempty,oneof=always failure"`
	Params   map[string]string `yaml:"params"`
}

const (
	DefaultMaxFailedShown   = 10
	DefaultMaxPanickedShown = 3
	DefaultDetailWidth      = 120
	DefaultColor            = "auto"
)

// DefaultOptions returns the options used when nothing overrides them.
func DefaultOptions() Options {
	return Options{
		MaxFailedShown:   DefaultMaxFailedShown,
		MaxPanickedShown: DefaultMaxPanickedShown,
		DetailWidth:      DefaultDetailWidth,
		Color:            DefaultColor,
	}
}

func Default() *Config {
	return &Config{Options: DefaultOptions()}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Load reads a config file, expands ${ENV} references and overlays it on the
// defaults. Keys missing from the file keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	data, err := envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Default()
	file.Options.mergeInto(&cfg.Options)
	cfg.Notify = file.Notify
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors Config with optional option fields so that keys absent
// from the file can be told apart from explicit zero values.
type fileConfig struct {
	Options fileOptions    `yaml:"options"`
	Notify  []NotifyTarget `yaml:"notify"`
}

type fileOptions struct {
	MaxFailedShown   *int    `yaml:"max_failed_shown"`
	MaxPanickedShown *int    `yaml:"max_panicked_shown"`
	DetailWidth      *int    `yaml:"detail_width"`
	LogFile          *string `yaml:"logfile"`
	Color            *string `yaml:"color"`
}

func (f fileOptions) mergeInto(o *Options) {
	if f.MaxFailedShown != nil {
		o.MaxFailedShown = *f.MaxFailedShown
	}
	if f.MaxPanickedShown != nil {
		o.MaxPanickedShown = *f.MaxPanickedShown
	}
	if f.DetailWidth != nil {
		o.DetailWidth = *f.DetailWidth
	}
	if f.LogFile != nil {
		o.LogFile = *f.LogFile
	}
	if f.Color != nil {
		o.Color = *f.Color
	}
}

// Marshal renders cfg as YAML, used by `krark init`.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
