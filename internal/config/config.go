// Package config loads CLI settings from the environment.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rcliao/storyteller/internal/model"
)

// Prefix is prepended to every environment variable name.
const Prefix = "STORYTELLER"

// Config holds all settings. Variables are read as STORYTELLER_<name>.
type Config struct {
	// Model endpoint (any OpenAI-compatible API)
	APIKey      string        `envconfig:"API_KEY"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://api.deepseek.com/v1"`
	Model       string        `envconfig:"MODEL" default:"deepseek-chat"`
	ImageModel  string        `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	ImageSize   string        `envconfig:"IMAGE_SIZE" default:"1024x1024"`
	Temperature float32       `envconfig:"TEMPERATURE" default:"0.8"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"120s"`

	MaxTokensShort int `envconfig:"MAX_TOKENS_SHORT" default:"1500"`
	MaxTokensLong  int `envconfig:"MAX_TOKENS_LONG" default:"7500"`

	// Prompt assembly
	HistoryTurns   int `envconfig:"HISTORY_TURNS" default:"10"`
	WorldBookLimit int `envconfig:"WORLD_BOOK_LIMIT" default:"2000"`
	MemoryBudget   int `envconfig:"MEMORY_BUDGET" default:"1500"`
	StyleEvery     int `envconfig:"STYLE_EVERY" default:"5"`
	MemoryMaxAge   Age `envconfig:"MEMORY_MAX_AGE" default:"7d"`

	// Ambient
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`
	DB          string `envconfig:"DB" default:":memory:"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that envconfig cannot express.
func (c *Config) Validate() error {
	switch {
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("%w: temperature %v out of range [0, 2]", model.ErrInvalidInput, c.Temperature)
	case c.MaxTokensShort <= 0 || c.MaxTokensLong <= 0:
		return fmt.Errorf("%w: max tokens must be positive", model.ErrInvalidInput)
	case c.HistoryTurns < 0:
		return fmt.Errorf("%w: history turns must not be negative", model.ErrInvalidInput)
	case c.WorldBookLimit <= 0:
		return fmt.Errorf("%w: world book limit must be positive", model.ErrInvalidInput)
	case c.MemoryBudget <= 0:
		return fmt.Errorf("%w: memory budget must be positive", model.ErrInvalidInput)
	}
	return nil
}

// Age is a duration that also accepts a day suffix, e.g. 7d.
type Age time.Duration

var ageRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

// Decode implements envconfig.Decoder.
func (a *Age) Decode(value string) error {
	d, err := ParseAge(value)
	if err != nil {
		return err
	}
	*a = Age(d)
	return nil
}

// Duration returns a as a time.Duration.
func (a Age) Duration() time.Duration { return time.Duration(a) }

// ParseAge parses values like 7d, 24h, 30m or 60s.
func ParseAge(s string) (time.Duration, error) {
	m := ageRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid age %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
