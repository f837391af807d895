// Package evaluator decides whether the current interview topic has enough
// information to move on.
//
// The decision is delegated entirely to the generator. Every failure mode,
// whether a provider error, unparseable output, or a value outside the allowed
// enums, collapses to FailSafe so the conversation simply stays on its topic.
package evaluator

import (
	"context"
	"fmt"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/core/structured"
	"github.com/garygangwu/tax-copilot/generation"
	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/session"
)

var evaluationSchema = structured.Schema[Evaluation]()

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithObserver sets the observer for evaluator events.
func WithObserver(o observability.Observer) Option {
	return func(e *Evaluator) { e.observer = o }
}

// Evaluator judges topic completion.
type Evaluator struct {
	gen           generation.Generator
	temperature   float64
	maxTokens     int
	historyWindow int
	sampleKeys    int
	observer      observability.Observer
}

// New creates an Evaluator that calls gen.
func New(gen generation.Generator, cfg *Config, opts ...Option) *Evaluator {
	e := &Evaluator{
		gen:           gen,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		historyWindow: cfg.HistoryWindow,
		sampleKeys:    cfg.SampleKeys,
	}
	if e.historyWindow <= 0 {
		e.historyWindow = defaultHistoryWindow
	}
	if e.sampleKeys <= 0 {
		e.sampleKeys = defaultSampleKeys
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate judges whether topic is complete in sess. It never fails; see
// FailSafe.
func (e *Evaluator) Evaluate(ctx context.Context, sess *session.Session, topic session.Topic) Evaluation {
	resp, err := e.gen.Generate(ctx, generation.Request{
		SystemPrompt: e.buildPrompt(sess, topic),
		Messages:     protocol.InitMessages(protocol.RoleUser, requestText),
		Schema:       evaluationSchema,
		SchemaName:   "completion_evaluation",
		Temperature:  e.temperature,
		MaxTokens:    e.maxTokens,
	})
	if err != nil {
		return e.fallback(ctx, sess, topic, fmt.Sprintf("Error during evaluation: %v", err))
	}

	var wire wireEvaluation
	if err := structured.Decode(resp.Text(), &wire); err != nil {
		return e.fallback(ctx, sess, topic, fmt.Sprintf("Failed to parse evaluation: %v", err))
	}
	eval, err := wire.evaluation()
	if err != nil {
		return e.fallback(ctx, sess, topic, fmt.Sprintf("Failed to parse evaluation: %v", err))
	}

	observability.Emit(ctx, e.observer, EventEvaluate, observability.LevelVerbose, "evaluator.Evaluate", map[string]any{
		"session_id":     sess.ID,
		"topic":          string(topic),
		"topic_complete": eval.TopicComplete,
		"next_action":    string(eval.NextAction),
		"next_topic":     string(eval.NextTopic),
		"confidence":     string(eval.Confidence),
	})
	return eval
}

func (e *Evaluator) fallback(ctx context.Context, sess *session.Session, topic session.Topic, reason string) Evaluation {
	observability.Emit(ctx, e.observer, EventFallback, observability.LevelWarning, "evaluator.Evaluate", map[string]any{
		"session_id": sess.ID,
		"topic":      string(topic),
		"reason":     reason,
	})
	return FailSafe(reason)
}
