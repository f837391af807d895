package session

import (
	"fmt"
	"slices"
)

// Topic names a group of related interview questions.
type Topic string

const (
	TopicBasicInfo   Topic = "basic_info"
	TopicIncome      Topic = "income"
	TopicDeductions  Topic = "deductions"
	TopicDependents  Topic = "dependents"
	TopicInvestments Topic = "investments"
)

// DefaultTopics is the topic list used when a session is created without one.
var DefaultTopics = []Topic{
	TopicBasicInfo,
	TopicIncome,
	TopicDeductions,
	TopicDependents,
	TopicInvestments,
}

// IsTopic reports whether name is one of the known topics.
func IsTopic(name string) bool {
	return slices.Contains(DefaultTopics, Topic(name))
}

// State is the interview's position in the conversation flow.
type State string

const (
	StateStarted     State = "STARTED"
	StateBasicInfo   State = "COLLECTING_BASIC_INFO"
	StateIncome      State = "COLLECTING_INCOME"
	StateDeductions  State = "COLLECTING_DEDUCTIONS"
	StateDependents  State = "COLLECTING_DEPENDENTS"
	StateInvestments State = "COLLECTING_INVESTMENTS"
	StateCompleted   State = "COMPLETED"
)

// CollectionOrder lists the topic-collecting states in interview order.
var CollectionOrder = []State{
	StateBasicInfo,
	StateIncome,
	StateDeductions,
	StateDependents,
	StateInvestments,
}

// transitions is the complete set of allowed moves. Every edge points
// forward in CollectionOrder, so no sequence of transitions revisits a state.
var transitions = map[State][]State{
	StateStarted:     {StateBasicInfo},
	StateBasicInfo:   {StateIncome, StateDeductions, StateDependents, StateInvestments, StateCompleted},
	StateIncome:      {StateDeductions, StateDependents, StateInvestments, StateCompleted},
	StateDeductions:  {StateDependents, StateInvestments, StateCompleted},
	StateDependents:  {StateInvestments, StateCompleted},
	StateInvestments: {StateCompleted},
	StateCompleted:   nil,
}

var stateTopics = map[State]Topic{
	StateBasicInfo:   TopicBasicInfo,
	StateIncome:      TopicIncome,
	StateDeductions:  TopicDeductions,
	StateDependents:  TopicDependents,
	StateInvestments: TopicInvestments,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted
}

// CanTransition reports whether the table allows moving from s to next.
func (s State) CanTransition(next State) bool {
	return slices.Contains(transitions[s], next)
}

// Next returns the states reachable from s in one transition.
func (s State) Next() []State {
	return slices.Clone(transitions[s])
}

// Topic returns the topic collected in s. STARTED and COMPLETED have none.
func (s State) Topic() (Topic, bool) {
	t, ok := stateTopics[s]
	return t, ok
}

// StateForTopic returns the collecting state for topic.
func StateForTopic(topic Topic) (State, bool) {
	for s, t := range stateTopics {
		if t == topic {
			return s, true
		}
	}
	return "", false
}

// TransitionError reports a rejected state change.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

// Unwrap enables errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Transition moves the session to next if the table allows it.
func (s *Session) Transition(next State) error {
	if !s.State.CanTransition(next) {
		return &TransitionError{From: s.State, To: next}
	}
	s.State = next
	s.touch()
	return nil
}
