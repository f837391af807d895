package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/garygangwu/tax-copilot/core/structured"
	"github.com/garygangwu/tax-copilot/evaluator"
	"github.com/garygangwu/tax-copilot/generation"
	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/session"
)

// Evaluator judges whether a topic is complete. It must not fail.
type Evaluator interface {
	Evaluate(ctx context.Context, sess *session.Session, topic session.Topic) evaluator.Evaluation
}

// Organizer regroups extracted data before profile building. It must not fail.
type Organizer interface {
	Organize(ctx context.Context, sess *session.Session) map[string]any
}

// SessionSaver persists a session.
type SessionSaver interface {
	Save(ctx context.Context, sess *session.Session) error
}

// Manager runs conversation turns for one session: it evaluates topic
// completion, moves the state machine, asks the next question, and persists
// the session after every turn.
type Manager struct {
	sess          *session.Session
	gen           generation.Generator
	evaluator     Evaluator
	store         SessionSaver
	historyWindow int
	temperature   float64
	maxTokens     int
	observer      observability.Observer
}

// NewManager creates a Manager for sess. The manager mutates sess in place.
func NewManager(cfg *Config, sess *session.Session, gen generation.Generator, eval Evaluator, store SessionSaver, obs observability.Observer) *Manager {
	window := cfg.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Manager{
		sess:          sess,
		gen:           gen,
		evaluator:     eval,
		store:         store,
		historyWindow: window,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		observer:      obs,
	}
}

// Session returns the managed session.
func (m *Manager) Session() *session.Session {
	return m.sess
}

// ProcessUserInput runs one turn and returns the agent's next message.
//
// Generation problems never fail the turn: malformed output and provider
// errors produce a fallback message that is persisted like any other. If ctx
// is canceled the session is restored to its state before the turn, nothing
// is saved, and the context error is returned. Storage errors are returned.
func (m *Manager) ProcessUserInput(ctx context.Context, text string) (string, error) {
	snapshot := m.sess.Clone()
	m.sess.AddMessage(session.RoleUser, text, nil)

	from := m.sess.State
	m.checkTransition(ctx)
	if err := ctx.Err(); err != nil {
		return "", m.abandon(ctx, snapshot, err)
	}

	resp, err := m.gen.Generate(ctx, generation.Request{
		SystemPrompt: systemPrompt(m.sess),
		Messages:     history(m.sess.RecentMessages(m.historyWindow)),
		Schema:       turnSchema,
		SchemaName:   "interview_turn",
		Temperature:  m.temperature,
		MaxTokens:    m.maxTokens,
	})
	if err != nil {
		if generation.Canceled(ctx, err) {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return "", m.abandon(ctx, snapshot, err)
		}
		return m.fallback(ctx, fmt.Sprintf(errorFallback, err), err)
	}

	out, err := parseTurn(resp.Text())
	if err != nil {
		return m.fallback(ctx, jsonFallback, err)
	}

	if len(out.ExtractedData) > 0 {
		routeExtracted(m.sess, out.ExtractedData, dataTopic(m.sess))
	}
	m.sess.AddMessage(session.RoleAgent, out.NextQuestion, map[string]any{"confidence": out.Confidence})

	if err := m.store.Save(ctx, m.sess); err != nil {
		return "", err
	}

	observability.Emit(ctx, m.observer, EventTurn, observability.LevelInfo, "interview.Manager.ProcessUserInput", map[string]any{
		"session_id": m.sess.ID,
		"from":       string(from),
		"state":      string(m.sess.State),
		"confidence": out.Confidence,
		"extracted":  len(out.ExtractedData),
	})
	return out.NextQuestion, nil
}

// checkTransition evaluates the current topic and moves the state machine.
// STARTED and COMPLETED have no topic and are never evaluated.
func (m *Manager) checkTransition(ctx context.Context) {
	current := m.sess.State
	topic, ok := current.Topic()
	if !ok {
		return
	}

	eval := m.evaluator.Evaluate(ctx, m.sess, topic)
	if ctx.Err() != nil {
		return
	}

	switch eval.NextAction {
	case evaluator.ActionComplete:
		m.sess.MarkTopicCovered(topic)
		m.transition(ctx, session.StateCompleted, eval)
	case evaluator.ActionAdvance:
		m.sess.MarkTopicCovered(topic)
		m.transition(ctx, m.nextState(current, eval.NextTopic), eval)
	}

	if len(m.sess.TopicsRemaining) == 0 && eval.TopicComplete && m.sess.State != session.StateCompleted {
		m.sess.MarkTopicCovered(topic)
		m.transition(ctx, session.StateCompleted, eval)
	}
}

// nextState picks the state after from. A topic named by the evaluator is
// used when the transition table allows it and the topic is not yet covered;
// otherwise the next collecting state in order whose topic remains;
// otherwise COMPLETED.
func (m *Manager) nextState(from session.State, named session.Topic) session.State {
	if named != "" && !m.sess.IsCovered(named) {
		if s, ok := session.StateForTopic(named); ok && from.CanTransition(s) {
			return s
		}
	}

	for _, s := range session.CollectionOrder {
		t, _ := s.Topic()
		if from.CanTransition(s) && m.sess.IsRemaining(t) {
			return s
		}
	}
	return session.StateCompleted
}

func (m *Manager) transition(ctx context.Context, next session.State, eval evaluator.Evaluation) {
	from := m.sess.State
	if err := m.sess.Transition(next); err != nil {
		observability.Emit(ctx, m.observer, EventTransition, observability.LevelWarning, "interview.Manager.transition", map[string]any{
			"session_id": m.sess.ID,
			"error":      err.Error(),
		})
		return
	}

	observability.Emit(ctx, m.observer, EventTransition, observability.LevelInfo, "interview.Manager.transition", map[string]any{
		"session_id": m.sess.ID,
		"from":       string(from),
		"to":         string(next),
		"reasoning":  eval.Reasoning,
		"confidence": string(eval.Confidence),
	})
	if next == session.StateCompleted {
		observability.Emit(ctx, m.observer, EventComplete, observability.LevelInfo, "interview.Manager.transition", map[string]any{
			"session_id": m.sess.ID,
		})
	}
}

// fallback records a fallback agent message for a failed generation.
func (m *Manager) fallback(ctx context.Context, message string, cause error) (string, error) {
	level := observability.LevelWarning
	if !errors.Is(cause, structured.ErrMalformed) {
		level = observability.LevelError
	}
	observability.Emit(ctx, m.observer, EventFallback, level, "interview.Manager.ProcessUserInput", map[string]any{
		"session_id": m.sess.ID,
		"error":      cause.Error(),
	})

	m.sess.AddMessage(session.RoleAgent, message, nil)
	if err := m.store.Save(ctx, m.sess); err != nil {
		return "", err
	}
	return message, nil
}

// abandon restores the session to snapshot after a canceled turn.
func (m *Manager) abandon(ctx context.Context, snapshot *session.Session, err error) error {
	*m.sess = *snapshot
	observability.Emit(context.WithoutCancel(ctx), m.observer, EventCanceled, observability.LevelInfo, "interview.Manager.ProcessUserInput", map[string]any{
		"session_id": m.sess.ID,
		"error":      err.Error(),
	})
	return err
}
