package interview

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garygangwu/tax-copilot/evaluator"
	"github.com/garygangwu/tax-copilot/generation"
	"github.com/garygangwu/tax-copilot/organizer"
	"github.com/garygangwu/tax-copilot/profile"
	"github.com/garygangwu/tax-copilot/session"
)

const (
	defaultDataDir       = "data"
	defaultHistoryWindow = 100
	defaultTemperature   = 0.7
)

// Config holds initialization parameters for every interview subsystem.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	DataDir       string            `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	Generation    generation.Config `json:"generation" yaml:"generation"`
	Session       session.Config    `json:"session" yaml:"session"`
	Profile       profile.Config    `json:"profile" yaml:"profile"`
	Evaluator     evaluator.Config  `json:"evaluator" yaml:"evaluator"`
	Organizer     organizer.Config  `json:"organizer" yaml:"organizer"`
	HistoryWindow int               `json:"history_window,omitempty" yaml:"history_window,omitempty"` // Messages sent when generating the next question.
	Temperature   float64           `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens     int               `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"` // Zero leaves the provider default.
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		DataDir:       defaultDataDir,
		Generation:    generation.DefaultConfig(),
		Session:       session.DefaultConfig(),
		Profile:       profile.DefaultConfig(),
		Evaluator:     evaluator.DefaultConfig(),
		Organizer:     organizer.DefaultConfig(),
		HistoryWindow: defaultHistoryWindow,
		Temperature:   defaultTemperature,
	}
}

// Merge applies non-zero values from source into c. A DataDir relocates the
// session and profile directories; explicit subsystem directories still win.
func (c *Config) Merge(source *Config) {
	if source.DataDir != "" {
		c.DataDir = source.DataDir
		c.Session.Dir = filepath.Join(source.DataDir, "sessions")
		c.Profile.Dir = filepath.Join(source.DataDir, "profiles")
	}

	c.Generation.Merge(&source.Generation)
	c.Session.Merge(&source.Session)
	c.Profile.Merge(&source.Profile)
	c.Evaluator.Merge(&source.Evaluator)
	c.Organizer.Merge(&source.Organizer)

	if source.HistoryWindow > 0 {
		c.HistoryWindow = source.HistoryWindow
	}
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
}

// LoadConfig reads a JSON or YAML config file (by extension), merges it with
// defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
