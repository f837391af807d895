package evaluator

const (
	defaultTemperature   = 0.3
	defaultMaxTokens     = 500
	defaultHistoryWindow = 20
	defaultSampleKeys    = 5
)

// Config holds evaluation parameters.
type Config struct {
	Temperature   float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	HistoryWindow int     `json:"history_window,omitempty" yaml:"history_window,omitempty"` // Recent messages shown to the evaluator.
	SampleKeys    int     `json:"sample_keys,omitempty" yaml:"sample_keys,omitempty"`       // Field names listed per topic in the data summary.
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() Config {
	return Config{
		Temperature:   defaultTemperature,
		MaxTokens:     defaultMaxTokens,
		HistoryWindow: defaultHistoryWindow,
		SampleKeys:    defaultSampleKeys,
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
	if source.HistoryWindow > 0 {
		c.HistoryWindow = source.HistoryWindow
	}
	if source.SampleKeys > 0 {
		c.SampleKeys = source.SampleKeys
	}
}
