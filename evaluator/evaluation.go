package evaluator

import (
	"errors"
	"fmt"

	"github.com/garygangwu/tax-copilot/session"
)

// Action is the evaluator's recommendation for the conversation.
type Action string

const (
	ActionContinue Action = "continue_topic"
	ActionAdvance  Action = "advance_to_next_topic"
	ActionComplete Action = "complete_interview"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionContinue, ActionAdvance, ActionComplete:
		return true
	}
	return false
}

// Confidence grades how sure the evaluator is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Evaluation is the verdict on whether the current topic is complete.
// NextTopic is empty when the evaluator named none.
type Evaluation struct {
	TopicComplete bool          `json:"topic_complete" jsonschema:"required"`
	Reasoning     string        `json:"reasoning" jsonschema:"required"`
	NextAction    Action        `json:"next_action" jsonschema:"required,enum=continue_topic,enum=advance_to_next_topic,enum=complete_interview"`
	NextTopic     session.Topic `json:"next_topic,omitempty"`
	Confidence    Confidence    `json:"confidence" jsonschema:"required,enum=high,enum=medium,enum=low"`
}

// FailSafe is the evaluation used whenever the evaluator cannot decide: stay
// on the topic, with low confidence.
func FailSafe(reason string) Evaluation {
	return Evaluation{
		TopicComplete: false,
		Reasoning:     reason,
		NextAction:    ActionContinue,
		Confidence:    ConfidenceLow,
	}
}

var errInvalidEvaluation = errors.New("invalid evaluation")

// wireEvaluation distinguishes missing fields from zero values.
type wireEvaluation struct {
	TopicComplete *bool   `json:"topic_complete"`
	Reasoning     *string `json:"reasoning"`
	NextAction    *string `json:"next_action"`
	NextTopic     *string `json:"next_topic"`
	Confidence    *string `json:"confidence"`
}

func (w wireEvaluation) evaluation() (Evaluation, error) {
	switch {
	case w.TopicComplete == nil:
		return Evaluation{}, fmt.Errorf("%w: missing topic_complete", errInvalidEvaluation)
	case w.NextAction == nil:
		return Evaluation{}, fmt.Errorf("%w: missing next_action", errInvalidEvaluation)
	case w.Confidence == nil:
		return Evaluation{}, fmt.Errorf("%w: missing confidence", errInvalidEvaluation)
	}

	e := Evaluation{
		TopicComplete: *w.TopicComplete,
		NextAction:    Action(*w.NextAction),
		Confidence:    Confidence(*w.Confidence),
	}
	if w.Reasoning != nil {
		e.Reasoning = *w.Reasoning
	}
	if w.NextTopic != nil {
		e.NextTopic = session.Topic(*w.NextTopic)
	}

	if !e.NextAction.Valid() {
		return Evaluation{}, fmt.Errorf("%w: next_action %q", errInvalidEvaluation, e.NextAction)
	}
	if !e.Confidence.Valid() {
		return Evaluation{}, fmt.Errorf("%w: confidence %q", errInvalidEvaluation, e.Confidence)
	}
	return e, nil
}
