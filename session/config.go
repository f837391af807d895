package session

import "github.com/garygangwu/tax-copilot/storage"

const defaultListConcurrency = 8

// Config holds session store parameters.
type Config struct {
	Dir             string   `json:"dir,omitempty" yaml:"dir,omitempty"`
	DefaultTopics   []string `json:"default_topics,omitempty" yaml:"default_topics,omitempty"`
	ListConcurrency int      `json:"list_concurrency,omitempty" yaml:"list_concurrency,omitempty"`
}

// DefaultConfig returns the default session store configuration.
func DefaultConfig() Config {
	topics := make([]string, len(DefaultTopics))
	for i, t := range DefaultTopics {
		topics[i] = string(t)
	}
	return Config{
		Dir:             "data/sessions",
		DefaultTopics:   topics,
		ListConcurrency: defaultListConcurrency,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if len(source.DefaultTopics) > 0 {
		c.DefaultTopics = source.DefaultTopics
	}
	if source.ListConcurrency > 0 {
		c.ListConcurrency = source.ListConcurrency
	}
}

// NewStore creates a file-backed Store from configuration.
func NewStore(cfg *Config, opts ...Option) (*Store, error) {
	files, err := storage.NewStore(&storage.Config{Path: cfg.Dir})
	if err != nil {
		return nil, err
	}

	topics := make([]Topic, 0, len(cfg.DefaultTopics))
	for _, t := range cfg.DefaultTopics {
		topics = append(topics, Topic(t))
	}
	if len(topics) == 0 {
		topics = DefaultTopics
	}

	s := &Store{
		files:         files,
		defaultTopics: topics,
		concurrency:   cfg.ListConcurrency,
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultListConcurrency
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
