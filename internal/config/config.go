package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/michaelbrown/carcin-play/internal/carcin"
)

// MessageConfig maps one sandbox diagnostic to user-facing text. It is a
// list entry rather than a map key because viper lowercases and splits keys.
type MessageConfig struct {
	Match   string `mapstructure:"match"`
	Message string `mapstructure:"message"`
}

type CarcinConfig struct {
	BaseURL  string          `mapstructure:"base_url"`
	Language string          `mapstructure:"language"`
	Options  map[string]any  `mapstructure:"options"`
	Messages []MessageConfig `mapstructure:"messages"`
}

type WidgetConfig struct {
	Selector      string `mapstructure:"selector"`
	ANSI          bool   `mapstructure:"ansi"`
	LockOnFailure bool   `mapstructure:"lock_on_failure"`
}

type ServerConfig struct {
	Port       int `mapstructure:"port"`
	MaxWidgets int `mapstructure:"max_widgets"`
}

type DocsConfig struct {
	Dir      string `mapstructure:"dir"`
	Versions string `mapstructure:"versions"`
	Version  string `mapstructure:"version"`
}

type Config struct {
	Carcin CarcinConfig `mapstructure:"carcin"`
	Widget WidgetConfig `mapstructure:"widget"`
	Server ServerConfig `mapstructure:"server"`
	Docs   DocsConfig   `mapstructure:"docs"`
}

// Load reads carcin-play.yaml from the working directory or
// $HOME/.carcin-play. A missing file leaves the defaults in place.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("carcin-play")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.carcin-play")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads an explicit config file.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("carcin.base_url", carcin.DefaultBaseURL)
	v.SetDefault("carcin.language", "crystal")
	v.SetDefault("widget.selector", "crystal-play")
	v.SetDefault("widget.ansi", true)
	v.SetDefault("widget.lock_on_failure", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_widgets", 1000)
	v.SetDefault("docs.dir", "site")
	v.SetDefault("docs.version", "latest")

	v.SetEnvPrefix("CARCIN_PLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("docs.version", "CARCIN_PLAY_DOCS_VERSION", "CRYSTAL_VERSION")

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand environment variable references in option values
	for k, val := range cfg.Carcin.Options {
		s, ok := val.(string)
		if ok && strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
			cfg.Carcin.Options[k] = os.Getenv(s[2 : len(s)-1])
		}
	}

	return &cfg, nil
}

// RunOptions returns the execution options sent with every run request. The
// configured language fills in "language" unless options set it.
func (c *Config) RunOptions() carcin.Options {
	opts := carcin.Options{}
	if c.Carcin.Language != "" {
		opts["language"] = c.Carcin.Language
	}
	return opts.Merge(c.Carcin.Options)
}

// Translator builds the stderr translator with the configured messages.
func (c *Config) Translator() *carcin.Translator {
	extra := make(map[string]string, len(c.Carcin.Messages))
	for _, m := range c.Carcin.Messages {
		extra[m.Match] = m.Message
	}
	return carcin.NewTranslator(extra)
}
