package generation

import "time"

// Config selects and parameterizes a provider.
type Config struct {
	Provider   string        `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey     string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MaxRetries int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	RetryDelay time.Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		Provider:   "gemini",
		Model:      "gemini-2.5-flash",
		MaxRetries: 3,
		RetryDelay: 300 * time.Millisecond,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.MaxRetries > 0 {
		c.MaxRetries = source.MaxRetries
	}
	if source.RetryDelay > 0 {
		c.RetryDelay = source.RetryDelay
	}
}
