package organizer

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 2000
)

// Config holds reorganization generation parameters.
type Config struct {
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// DefaultConfig returns the default organizer configuration.
func DefaultConfig() Config {
	return Config{
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
}
