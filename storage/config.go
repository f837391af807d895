package storage

// Config holds file store initialization parameters.
type Config struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"` // Root directory; created on first write.
}

// DefaultConfig returns an empty configuration. Owners of a store set Path.
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewStore creates a file-backed Store from configuration.
func NewStore(cfg *Config) (Store, error) {
	if cfg.Path == "" {
		return nil, ErrNoRoot
	}
	return NewFileStore(cfg.Path), nil
}
