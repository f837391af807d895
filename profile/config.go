package profile

const defaultCacheSize = 256

// Config holds profile persistence parameters.
type Config struct {
	Dir         string `json:"dir,omitempty" yaml:"dir,omitempty"`
	CacheSize   int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
	HistoryPath string `json:"history_path,omitempty" yaml:"history_path,omitempty"` // SQLite file; empty disables history.
}

// DefaultConfig returns the default profile configuration.
func DefaultConfig() Config {
	return Config{
		Dir:       "data/profiles",
		CacheSize: defaultCacheSize,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if source.CacheSize > 0 {
		c.CacheSize = source.CacheSize
	}
	if source.HistoryPath != "" {
		c.HistoryPath = source.HistoryPath
	}
}
