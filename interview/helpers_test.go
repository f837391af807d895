package interview_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/garygangwu/tax-copilot/evaluator"
	"github.com/garygangwu/tax-copilot/generation"
	"github.com/garygangwu/tax-copilot/generation/mock"
	"github.com/garygangwu/tax-copilot/interview"
	"github.com/garygangwu/tax-copilot/observability"
)

const (
	schemaTurn       = "interview_turn"
	schemaEvaluation = "completion_evaluation"
	schemaOrganized  = "organized_data"
)

// script routes generation requests by schema name to per-schema queues.
type script struct {
	mu      sync.Mutex
	replies map[string][]mock.Reply
	calls   map[string]int
}

func newScript() *script {
	return &script{replies: map[string][]mock.Reply{}, calls: map[string]int{}}
}

func (s *script) add(schema string, replies ...mock.Reply) *script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[schema] = append(s.replies[schema], replies...)
	return s
}

func (s *script) count(schema string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[schema]
}

func (s *script) handle(_ context.Context, req generation.Request) mock.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.SchemaName]++
	q := s.replies[req.SchemaName]
	if len(q) == 0 {
		return mock.Fail(errors.New("unscripted " + req.SchemaName))
	}
	s.replies[req.SchemaName] = q[1:]
	return q[0]
}

func (s *script) generator() *mock.Generator {
	return mock.New(mock.WithHandler(s.handle))
}

func turn(question string, data map[string]any) mock.Reply {
	return mock.JSON(map[string]any{
		"next_question":  question,
		"extracted_data": data,
		"confidence":     "high",
		"reasoning":      "scripted",
	})
}

func eval(action evaluator.Action, next string, complete bool) mock.Reply {
	return mock.JSON(map[string]any{
		"topic_complete": complete,
		"reasoning":      "scripted",
		"next_action":    string(action),
		"next_topic":     next,
		"confidence":     "high",
	})
}

func newAgent(t *testing.T, gen generation.Generator, opts ...interview.Option) (*interview.Agent, *observability.Recorder, interview.Config) {
	t.Helper()
	cfg := interview.DefaultConfig()
	cfg.Merge(&interview.Config{DataDir: t.TempDir()})

	rec := &observability.Recorder{}
	opts = append([]interview.Option{interview.WithGenerator(gen), interview.WithObserver(rec)}, opts...)
	a, err := interview.New(context.Background(), &cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, rec, cfg
}
