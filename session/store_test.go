package session_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/session"
	"github.com/garygangwu/tax-copilot/storage"
)

func newStore(t *testing.T, opts ...session.Option) (*session.Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sessions")
	cfg := session.DefaultConfig()
	cfg.Dir = dir
	store, err := session.NewStore(&cfg, opts...)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store, dir
}

var idPattern = regexp.MustCompile(`^sess_\d{8}_\d{6}_[0-9a-f]{32}$`)

func TestStore_Create(t *testing.T) {
	rec := &observability.Recorder{}
	store, dir := newStore(t, session.WithObserver(rec))
	ctx := context.Background()

	sess, err := store.Create(ctx, "john", 2024, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !idPattern.MatchString(sess.ID) {
		t.Errorf("ID = %q does not match %s", sess.ID, idPattern)
	}
	if len(sess.TopicsRemaining) != len(session.DefaultTopics) {
		t.Errorf("TopicsRemaining = %v, want defaults", sess.TopicsRemaining)
	}
	if _, err := os.Stat(filepath.Join(dir, sess.ID+".json")); err != nil {
		t.Errorf("session file not written: %v", err)
	}
	if !store.Exists(ctx, sess.ID) {
		t.Error("Exists() = false after Create")
	}
	if !rec.Has(session.EventCreate) {
		t.Errorf("events = %v, want %s", rec.Types(), session.EventCreate)
	}
}

func TestStore_Create_ConcurrentUniqueIDs(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := store.Create(ctx, "u", 2024, nil)
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			ids[i] = sess.ID
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	sess, _ := store.Create(ctx, "john", 2024, []session.Topic{"income", "deductions"})
	_ = sess.Transition(session.StateBasicInfo)
	sess.AddMessage(session.RoleAgent, "What's your filing status?", map[string]any{"confidence": "high"})
	sess.MergeExtracted(session.TopicIncome, map[string]any{"salary": 85000, "nested": map[string]any{"a": true}})
	sess.MarkTopicCovered(session.TopicIncome)
	before := sess.UpdatedAt

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !sess.UpdatedAt.After(before) && !sess.UpdatedAt.Equal(before) {
		t.Error("Save() moved UpdatedAt backwards")
	}

	got, err := store.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.State != session.StateBasicInfo {
		t.Errorf("State = %s", got.State)
	}
	if len(got.Messages) != 1 || got.Messages[0].Metadata["confidence"] != "high" {
		t.Errorf("Messages = %+v", got.Messages)
	}
	if got.TopicData(session.TopicIncome)["salary"] != float64(85000) {
		t.Errorf("salary = %v", got.TopicData(session.TopicIncome)["salary"])
	}
	if !got.IsCovered(session.TopicIncome) || got.IsRemaining(session.TopicIncome) {
		t.Error("topic lists not round-tripped")
	}
	if !got.CreatedAt.Equal(sess.CreatedAt) || !got.UpdatedAt.Equal(sess.UpdatedAt) {
		t.Error("timestamps not round-tripped")
	}
}

func TestStore_Load_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Load(context.Background(), "sess_missing")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load() error = %v, want %v", err, session.ErrNotFound)
	}
}

func TestStore_Load_Corrupt(t *testing.T) {
	store, dir := newStore(t)
	writeFile(t, dir, "sess_bad.json", "{not json")
	writeFile(t, dir, "sess_badstate.json", `{"session_id":"sess_badstate","state":"NOPE"}`)

	for _, id := range []string{"sess_bad", "sess_badstate"} {
		_, err := store.Load(context.Background(), id)
		if !errors.Is(err, session.ErrCorrupt) {
			t.Errorf("Load(%s) error = %v, want %v", id, err, session.ErrCorrupt)
		}
		if errors.Is(err, session.ErrNotFound) {
			t.Errorf("Load(%s) corrupt error must not match ErrNotFound", id)
		}
	}
}

func TestStore_InvalidID(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
		if _, err := store.Load(ctx, id); !errors.Is(err, session.ErrInvalidID) {
			t.Errorf("Load(%q) error = %v, want %v", id, err, session.ErrInvalidID)
		}
		if err := store.Delete(ctx, id); !errors.Is(err, session.ErrInvalidID) {
			t.Errorf("Delete(%q) error = %v, want %v", id, err, session.ErrInvalidID)
		}
		if store.Exists(ctx, id) {
			t.Errorf("Exists(%q) = true", id)
		}
	}
}

func TestStore_List_FilterAndOrder(t *testing.T) {
	store, dir := newStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	docs := []struct {
		id      string
		user    string
		year    int
		updated time.Time
	}{
		{"sess_a", "john", 2024, base.Add(1 * time.Hour)},
		{"sess_b", "john", 2024, base.Add(3 * time.Hour)},
		{"sess_c", "john", 2023, base.Add(2 * time.Hour)},
		{"sess_d", "mary", 2024, base.Add(4 * time.Hour)},
	}
	for _, d := range docs {
		writeFile(t, dir, d.id+".json", fmt.Sprintf(
			`{"session_id":%q,"user_id":%q,"tax_year":%d,"state":"STARTED","updated_at":%q}`,
			d.id, d.user, d.year, d.updated.Format(time.RFC3339)))
	}
	writeFile(t, dir, "sess_corrupt.json", "garbage")
	writeFile(t, dir, "other.json", "{}")
	writeFile(t, dir, ".tmp-123", "partial")

	tests := []struct {
		name   string
		filter session.Filter
		want   []string
	}{
		{name: "all", filter: session.Filter{}, want: []string{"sess_d", "sess_b", "sess_c", "sess_a"}},
		{name: "user", filter: session.Filter{UserID: "john"}, want: []string{"sess_b", "sess_c", "sess_a"}},
		{name: "user and year", filter: session.Filter{UserID: "john", TaxYear: 2024}, want: []string{"sess_b", "sess_a"}},
		{name: "year", filter: session.Filter{TaxYear: 2023}, want: []string{"sess_c"}},
		{name: "no match", filter: session.Filter{UserID: "nobody"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d sessions, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestStore_List_EmptyDir(t *testing.T) {
	store, _ := newStore(t)

	got, err := store.List(context.Background(), session.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %d sessions, want 0", len(got))
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	sess, _ := store.Create(ctx, "u", 2024, nil)

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists(ctx, sess.ID) {
		t.Error("Exists() = true after Delete")
	}
	if err := store.Delete(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Delete() again error = %v, want %v", err, session.ErrNotFound)
	}
}

func TestStore_Save_CrashKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	files := &failingStore{Store: storage.NewFileStore(dir)}
	cfg := session.DefaultConfig()
	cfg.Dir = dir
	store, _ := session.NewStore(&cfg, session.WithFileStore(files))
	ctx := context.Background()

	sess, err := store.Create(ctx, "u", 2024, nil)
	if err != nil {
		t.Fatal(err)
	}

	files.fail = true
	sess.AddMessage(session.RoleUser, "lost", nil)
	if err := store.Save(ctx, sess); !errors.Is(err, storage.ErrSaveFailed) {
		t.Fatalf("Save() error = %v, want %v", err, storage.ErrSaveFailed)
	}

	got, err := store.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Messages) != 0 {
		t.Errorf("Load() returned partially saved session with %d messages", len(got.Messages))
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Merge(&session.Config{Dir: "/tmp/x", DefaultTopics: []string{"income"}})

	if cfg.Dir != "/tmp/x" {
		t.Errorf("Dir = %q", cfg.Dir)
	}
	if len(cfg.DefaultTopics) != 1 {
		t.Errorf("DefaultTopics = %v", cfg.DefaultTopics)
	}
	if cfg.ListConcurrency == 0 {
		t.Error("ListConcurrency should keep default")
	}
}

type failingStore struct {
	storage.Store
	fail bool
}

func (f *failingStore) Save(ctx context.Context, entries ...storage.Entry) error {
	if f.fail {
		return fmt.Errorf("%w: simulated crash", storage.ErrSaveFailed)
	}
	return f.Store.Save(ctx, entries...)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
