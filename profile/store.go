package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/storage"
)

const fileExt = ".json"

// Option configures a Store after config-driven initialization.
type Option func(*Store)

// WithObserver sets the observer for profile events.
func WithObserver(o observability.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithHistory records every saved profile as a version in h.
func WithHistory(h *History) Option {
	return func(s *Store) { s.history = h }
}

// WithFileStore overrides the config-created document store.
func WithFileStore(fs storage.Store) Option {
	return func(s *Store) { s.files = fs }
}

// Store persists one profile per (user, tax year) as <user>_<year>.json.
// Loaded profiles are kept in an LRU cache; callers always receive copies.
type Store struct {
	files    storage.Store
	cache    *lru.Cache[string, *TaxProfile]
	history  *History
	observer observability.Observer
}

// NewStore creates a file-backed Store from configuration.
func NewStore(cfg *Config, opts ...Option) (*Store, error) {
	files, err := storage.NewStore(&storage.Config{Path: cfg.Dir})
	if err != nil {
		return nil, err
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *TaxProfile](size)
	if err != nil {
		return nil, fmt.Errorf("create profile cache: %w", err)
	}

	s := &Store{files: files, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the document key for a user and tax year.
func Key(userID string, taxYear int) (string, error) {
	k := userID + "_" + strconv.Itoa(taxYear) + fileExt
	if userID == "" || !storage.ValidKey(k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, userID)
	}
	return k, nil
}

// Save validates and atomically writes the profile, replacing any previous
// profile for the same user and year.
func (s *Store) Save(ctx context.Context, p *TaxProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	k, err := Key(p.UserID, p.TaxYear)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrSaveFailed, k, err)
	}
	if err := s.files.Save(ctx, storage.Entry{Key: k, Value: data}); err != nil {
		return err
	}
	s.cache.Add(k, p.Clone())

	observability.Emit(ctx, s.observer, EventSave, observability.LevelInfo, "profile.Store.Save", map[string]any{
		"user_id":  p.UserID,
		"tax_year": p.TaxYear,
	})

	if s.history != nil {
		version, err := s.history.Record(ctx, p)
		if err != nil {
			observability.Emit(ctx, s.observer, EventHistoryError, observability.LevelWarning, "profile.Store.Save", map[string]any{
				"user_id": p.UserID,
				"error":   err.Error(),
			})
		} else {
			observability.Emit(ctx, s.observer, EventHistory, observability.LevelVerbose, "profile.Store.Save", map[string]any{
				"user_id": p.UserID,
				"version": version,
			})
		}
	}
	return nil
}

// Load returns the profile for a user and year, or ErrNotFound.
func (s *Store) Load(ctx context.Context, userID string, taxYear int) (*TaxProfile, error) {
	k, err := Key(userID, taxYear)
	if err != nil {
		return nil, err
	}
	if p, ok := s.cache.Get(k); ok {
		return p.Clone(), nil
	}

	entries, err := s.files.Load(ctx, k)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, userID, taxYear)
		}
		return nil, err
	}

	p, err := decode(entries[0].Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, k, err)
	}
	s.cache.Add(k, p)
	return p.Clone(), nil
}

func decode(data []byte) (*TaxProfile, error) {
	var p TaxProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.FilingStatus == "" {
		p.FilingStatus = FilingUnknown
	}
	return &p, nil
}

// List returns stored profiles, optionally for one user, most recently
// updated first. Undecodable files are skipped.
func (s *Store) List(ctx context.Context, userID string) ([]*TaxProfile, error) {
	keys, err := s.files.List(ctx)
	if err != nil {
		return nil, err
	}

	var profiles []*TaxProfile
	for _, k := range keys {
		if !strings.HasSuffix(k, fileExt) {
			continue
		}
		if userID != "" && !strings.HasPrefix(k, userID+"_") {
			continue
		}

		entries, err := s.files.Load(ctx, k)
		if err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		p, err := decode(entries[0].Value)
		if err != nil {
			observability.Emit(ctx, s.observer, EventSkipCorrupt, observability.LevelWarning, "profile.Store.List", map[string]any{
				"key":   k,
				"error": err.Error(),
			})
			continue
		}
		if userID != "" && p.UserID != userID {
			continue
		}
		profiles = append(profiles, p)
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].LastModified().After(profiles[j].LastModified())
	})
	return profiles, nil
}

// Delete removes the profile for a user and year.
func (s *Store) Delete(ctx context.Context, userID string, taxYear int) error {
	k, err := Key(userID, taxYear)
	if err != nil {
		return err
	}
	s.cache.Remove(k)

	if err := s.files.Delete(ctx, k); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s %d", ErrNotFound, userID, taxYear)
		}
		return err
	}
	return nil
}

// History returns the version history attached to the store, or nil.
func (s *Store) History() *History {
	return s.history
}
