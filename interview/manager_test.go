package interview_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/garygangwu/tax-copilot/evaluator"
	"github.com/garygangwu/tax-copilot/generation/mock"
	"github.com/garygangwu/tax-copilot/interview"
	"github.com/garygangwu/tax-copilot/session"
)

type stubEvaluator struct {
	eval   evaluator.Evaluation
	topics []session.Topic
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ *session.Session, topic session.Topic) evaluator.Evaluation {
	s.topics = append(s.topics, topic)
	return s.eval
}

type memorySaver struct {
	saved []*session.Session
	err   error
}

func (m *memorySaver) Save(_ context.Context, sess *session.Session) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, sess.Clone())
	return nil
}

func newManager(sess *session.Session, eval evaluator.Evaluation, replies ...mock.Reply) (*interview.Manager, *stubEvaluator, *memorySaver, *mock.Generator) {
	cfg := interview.DefaultConfig()
	gen := mock.New(mock.WithReplies(replies...), mock.WithFallback(turn("Next question?", nil)))
	stub := &stubEvaluator{eval: eval}
	saver := &memorySaver{}
	return interview.NewManager(&cfg, sess, gen, stub, saver, nil), stub, saver, gen
}

func sessionIn(state session.State, covered ...session.Topic) *session.Session {
	s := session.New("sess_mgr", "john", 2024, session.DefaultTopics)
	s.State = state
	for _, t := range covered {
		s.MarkTopicCovered(t)
	}
	return s
}

func TestManager_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		state   session.State
		covered []session.Topic
		eval    evaluator.Evaluation
		want    session.State
	}{
		{
			name:  "continue stays",
			state: session.StateIncome,
			eval:  evaluator.Evaluation{NextAction: evaluator.ActionContinue, Confidence: evaluator.ConfidenceHigh},
			want:  session.StateIncome,
		},
		{
			name:    "advance to named topic",
			state:   session.StateIncome,
			covered: []session.Topic{session.TopicBasicInfo},
			eval:    evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance, NextTopic: session.TopicDependents},
			want:    session.StateDependents,
		},
		{
			name:  "advance without name goes sequential",
			state: session.StateBasicInfo,
			eval:  evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance},
			want:  session.StateIncome,
		},
		{
			name:  "unknown named topic goes sequential",
			state: session.StateBasicInfo,
			eval:  evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance, NextTopic: "reviewing"},
			want:  session.StateIncome,
		},
		{
			name:    "backward named topic rejected",
			state:   session.StateDeductions,
			covered: []session.Topic{session.TopicBasicInfo},
			eval:    evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance, NextTopic: session.TopicIncome},
			want:    session.StateDependents,
		},
		{
			name:    "covered named topic skipped",
			state:   session.StateIncome,
			covered: []session.Topic{session.TopicBasicInfo, session.TopicDeductions},
			eval:    evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance, NextTopic: session.TopicDeductions},
			want:    session.StateDependents,
		},
		{
			name:    "sequential skips covered topics",
			state:   session.StateIncome,
			covered: []session.Topic{session.TopicBasicInfo, session.TopicDeductions, session.TopicDependents},
			eval:    evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance},
			want:    session.StateInvestments,
		},
		{
			name:    "advance past last topic completes",
			state:   session.StateInvestments,
			covered: []session.Topic{session.TopicBasicInfo, session.TopicIncome, session.TopicDeductions, session.TopicDependents},
			eval:    evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance},
			want:    session.StateCompleted,
		},
		{
			name:  "complete interview",
			state: session.StateIncome,
			eval:  evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionComplete},
			want:  session.StateCompleted,
		},
		{
			name:    "nothing remaining forces completion",
			state:   session.StateDependents,
			covered: []session.Topic{session.TopicBasicInfo, session.TopicIncome, session.TopicDeductions, session.TopicDependents, session.TopicInvestments},
			eval:    evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionContinue},
			want:    session.StateCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := sessionIn(tt.state, tt.covered...)
			m, _, saver, _ := newManager(sess, tt.eval)

			if _, err := m.ProcessUserInput(context.Background(), "answer"); err != nil {
				t.Fatalf("ProcessUserInput() error = %v", err)
			}
			if sess.State != tt.want {
				t.Errorf("State = %s, want %s", sess.State, tt.want)
			}
			if len(saver.saved) != 1 {
				t.Errorf("saved %d times, want 1", len(saver.saved))
			}
			for _, c := range sess.TopicsCovered {
				if slices.Contains(sess.TopicsRemaining, c) {
					t.Errorf("topic %s both covered and remaining", c)
				}
			}
		})
	}
}

func TestManager_AdvanceMarksCovered(t *testing.T) {
	sess := sessionIn(session.StateBasicInfo)
	m, _, _, _ := newManager(sess, evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionAdvance})

	if _, err := m.ProcessUserInput(context.Background(), "single"); err != nil {
		t.Fatal(err)
	}
	if !sess.IsCovered(session.TopicBasicInfo) || sess.IsRemaining(session.TopicBasicInfo) {
		t.Errorf("covered = %v remaining = %v", sess.TopicsCovered, sess.TopicsRemaining)
	}
}

func TestManager_NoEvaluationOutsideTopics(t *testing.T) {
	for _, state := range []session.State{session.StateStarted, session.StateCompleted} {
		sess := sessionIn(state)
		m, stub, _, _ := newManager(sess, evaluator.Evaluation{NextAction: evaluator.ActionComplete})

		if _, err := m.ProcessUserInput(context.Background(), "hello"); err != nil {
			t.Fatal(err)
		}
		if len(stub.topics) != 0 {
			t.Errorf("state %s was evaluated for %v", state, stub.topics)
		}
		if sess.State != state {
			t.Errorf("state changed from %s to %s", state, sess.State)
		}
	}
}

func TestManager_ExtractionRouting(t *testing.T) {
	sess := sessionIn(session.StateBasicInfo)
	m, _, _, gen := newManager(sess,
		evaluator.Evaluation{NextAction: evaluator.ActionContinue},
		turn("What state do you live in?", map[string]any{
			"filing_status": "single",
			"income":        map[string]any{"salary": 85000},
			"dependents":    0,
		}),
	)

	q, err := m.ProcessUserInput(context.Background(), "Single, I earn 85k and have no kids")
	if err != nil {
		t.Fatal(err)
	}
	if q != "What state do you live in?" {
		t.Errorf("question = %q", q)
	}

	basic := sess.TopicData(session.TopicBasicInfo)
	if basic["filing_status"] != "single" || basic["dependents"] != float64(0) {
		t.Errorf("basic_info = %v", basic)
	}
	if sess.TopicData(session.TopicIncome)["salary"] != float64(85000) {
		t.Errorf("income = %v", sess.TopicData(session.TopicIncome))
	}

	last, _ := sess.LastMessage(session.RoleAgent)
	if last.Metadata["confidence"] != "high" {
		t.Errorf("agent metadata = %v", last.Metadata)
	}

	req := gen.Requests()[0]
	if req.Temperature != 0.7 || req.SchemaName != "interview_turn" {
		t.Errorf("request = %v/%s", req.Temperature, req.SchemaName)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "Single, I earn 85k and have no kids" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestManager_ExtractionMergesAcrossTurns(t *testing.T) {
	sess := sessionIn(session.StateIncome)
	m, _, _, _ := newManager(sess,
		evaluator.Evaluation{NextAction: evaluator.ActionContinue},
		turn("q1", map[string]any{"salary": 85000, "employer": map[string]any{"count": 1}}),
		turn("q2", map[string]any{"employer": map[string]any{"years": 3}}),
	)

	for range 2 {
		if _, err := m.ProcessUserInput(context.Background(), "x"); err != nil {
			t.Fatal(err)
		}
	}

	employer := sess.TopicData(session.TopicIncome)["employer"].(map[string]any)
	if employer["count"] != float64(1) || employer["years"] != float64(3) {
		t.Errorf("employer = %v, want deep merge", employer)
	}
}

func TestManager_HistoryWindow(t *testing.T) {
	sess := sessionIn(session.StateIncome)
	for i := range 150 {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAgent
		}
		sess.AddMessage(role, "old", nil)
	}
	sess.AddMessage(session.RoleSystem, "note", nil)

	m, _, _, gen := newManager(sess, evaluator.Evaluation{NextAction: evaluator.ActionContinue})
	if _, err := m.ProcessUserInput(context.Background(), "new"); err != nil {
		t.Fatal(err)
	}

	msgs := gen.Requests()[0].Messages
	if len(msgs) != 99 {
		t.Errorf("sent %d messages, want 99 of the last 100 (system note dropped)", len(msgs))
	}
	if msgs[len(msgs)-1].Content != "new" {
		t.Errorf("last message = %q", msgs[len(msgs)-1].Content)
	}
}

func TestManager_StorageError(t *testing.T) {
	sess := sessionIn(session.StateIncome)
	cfg := interview.DefaultConfig()
	saveErr := errors.New("disk full")
	m := interview.NewManager(&cfg, sess, mock.New(mock.WithFallback(turn("q", nil))),
		&stubEvaluator{eval: evaluator.FailSafe("x")}, &memorySaver{err: saveErr}, nil)

	if _, err := m.ProcessUserInput(context.Background(), "x"); !errors.Is(err, saveErr) {
		t.Errorf("ProcessUserInput() error = %v, want %v", err, saveErr)
	}

	m = interview.NewManager(&cfg, sess, mock.New(mock.WithFallback(mock.Fail(errors.New("down")))),
		&stubEvaluator{eval: evaluator.FailSafe("x")}, &memorySaver{err: saveErr}, nil)
	if _, err := m.ProcessUserInput(context.Background(), "x"); !errors.Is(err, saveErr) {
		t.Errorf("fallback path error = %v, want %v", err, saveErr)
	}
}

func TestManager_CanceledRestoresSnapshot(t *testing.T) {
	sess := sessionIn(session.StateBasicInfo)
	sess.MergeExtracted(session.TopicBasicInfo, map[string]any{"state": "CA"})
	before := sess.Clone()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, _, saver, _ := newManager(sess, evaluator.Evaluation{TopicComplete: true, NextAction: evaluator.ActionComplete})
	if _, err := m.ProcessUserInput(ctx, "single"); !errors.Is(err, context.Canceled) {
		t.Fatalf("ProcessUserInput() error = %v, want %v", err, context.Canceled)
	}

	if sess.State != before.State || len(sess.Messages) != len(before.Messages) || len(sess.TopicsCovered) != 0 {
		t.Errorf("session not restored: state %s, %d messages, covered %v", sess.State, len(sess.Messages), sess.TopicsCovered)
	}
	if len(saver.saved) != 0 {
		t.Error("canceled turn must not save")
	}
}
