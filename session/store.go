package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/storage"
)

const (
	idPrefix  = "sess_"
	fileExt   = ".json"
	idTimeFmt = "20060102_150405"
)

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	UserID  string
	TaxYear int
}

func (f Filter) match(s *Session) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if f.TaxYear != 0 && s.TaxYear != f.TaxYear {
		return false
	}
	return true
}

// Option configures a Store after config-driven initialization.
type Option func(*Store)

// WithObserver sets the observer for store events.
func WithObserver(o observability.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithFileStore overrides the config-created document store.
func WithFileStore(fs storage.Store) Option {
	return func(s *Store) { s.files = fs }
}

// Store persists sessions as one JSON document per session. Writes are
// atomic; concurrent writers to the same session are not coordinated.
type Store struct {
	files         storage.Store
	defaultTopics []Topic
	concurrency   int
	observer      observability.Observer
}

// NewID returns a fresh session id: sess_<YYYYMMDD_HHMMSS>_<128-bit random hex>.
func NewID(now time.Time) string {
	return idPrefix + now.Format(idTimeFmt) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func key(id string) (string, error) {
	k := id + fileExt
	if id == "" || !storage.ValidKey(k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return k, nil
}

// Create starts a new session and saves it immediately. An empty topic list
// selects the configured defaults.
func (s *Store) Create(ctx context.Context, userID string, taxYear int, topics []Topic) (*Session, error) {
	if len(topics) == 0 {
		topics = s.defaultTopics
	}

	id := NewID(time.Now())
	for s.files.Exists(ctx, id+fileExt) {
		id = NewID(time.Now())
	}

	sess := New(id, userID, taxYear, topics)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}

	observability.Emit(ctx, s.observer, EventCreate, observability.LevelInfo, "session.Store.Create", map[string]any{
		"session_id": sess.ID,
		"user_id":    userID,
		"tax_year":   taxYear,
	})
	return sess, nil
}

// Save bumps UpdatedAt and atomically replaces the stored session.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	k, err := key(sess.ID)
	if err != nil {
		return err
	}

	sess.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrSaveFailed, sess.ID, err)
	}

	if err := s.files.Save(ctx, storage.Entry{Key: k, Value: data}); err != nil {
		return err
	}

	observability.Emit(ctx, s.observer, EventSave, observability.LevelVerbose, "session.Store.Save", map[string]any{
		"session_id": sess.ID,
		"state":      string(sess.State),
		"messages":   len(sess.Messages),
	})
	return nil
}

// Load reads a session. Returns ErrNotFound when absent and ErrCorrupt
// when the stored document cannot be decoded.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	k, err := key(id)
	if err != nil {
		return nil, err
	}

	entries, err := s.files.Load(ctx, k)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	sess, err := decode(entries[0].Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, id, err)
	}

	observability.Emit(ctx, s.observer, EventLoad, observability.LevelVerbose, "session.Store.Load", map[string]any{
		"session_id": id,
		"state":      string(sess.State),
	})
	return sess, nil
}

func decode(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		return nil, errors.New("missing session_id")
	}
	if !sess.State.Valid() {
		return nil, fmt.Errorf("unknown state %q", sess.State)
	}
	if sess.ExtractedData == nil {
		sess.ExtractedData = map[string]any{}
	}
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	return &sess, nil
}

// List returns sessions matching filter, most recently updated first.
// Documents that fail to decode are skipped.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Session, error) {
	keys, err := s.files.List(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, k := range keys {
		if strings.HasPrefix(k, idPrefix) && strings.HasSuffix(k, fileExt) {
			candidates = append(candidates, k)
		}
	}

	loaded := make([]*Session, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, k := range candidates {
		g.Go(func() error {
			entries, err := s.files.Load(gctx, k)
			if err != nil {
				if errors.Is(err, storage.ErrKeyNotFound) {
					return nil
				}
				return err
			}
			sess, err := decode(entries[0].Value)
			if err != nil {
				observability.Emit(gctx, s.observer, EventSkipCorrupt, observability.LevelWarning, "session.Store.List", map[string]any{
					"key":   k,
					"error": err.Error(),
				})
				return nil
			}
			loaded[i] = sess
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*Session, 0, len(loaded))
	for _, sess := range loaded {
		if sess != nil && filter.match(sess) {
			result = append(result, sess)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result, nil
}

// Delete removes a session. Returns ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	k, err := key(id)
	if err != nil {
		return err
	}

	if err := s.files.Delete(ctx, k); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}

	observability.Emit(ctx, s.observer, EventDelete, observability.LevelInfo, "session.Store.Delete", map[string]any{
		"session_id": id,
	})
	return nil
}

// Exists reports whether a session with id is stored.
func (s *Store) Exists(ctx context.Context, id string) bool {
	k, err := key(id)
	if err != nil {
		return false
	}
	return s.files.Exists(ctx, k)
}
