// Package session holds the interview session model and its durable store.
//
// A Session records the conversation, the data extracted from it, and the
// interview's progress through topics. Mutators keep the topic lists disjoint
// and bump UpdatedAt.
package session

import (
	"slices"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleAgent  Role = "agent"
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Message is a single entry in the session transcript.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Session is the durable state of one tax interview.
type Session struct {
	ID              string         `json:"session_id"`
	UserID          string         `json:"user_id"`
	TaxYear         int            `json:"tax_year"`
	State           State          `json:"state"`
	Messages        []Message      `json:"messages"`
	ExtractedData   map[string]any `json:"extracted_data"`
	TopicsCovered   []Topic        `json:"topics_covered"`
	TopicsRemaining []Topic        `json:"topics_remaining"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	OrganizedAt     *time.Time     `json:"organized_at,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// New creates a session in StateStarted with the given topics remaining.
// Duplicate topics are collapsed.
func New(id, userID string, taxYear int, topics []Topic) *Session {
	now := time.Now()

	remaining := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if !slices.Contains(remaining, t) {
			remaining = append(remaining, t)
		}
	}

	return &Session{
		ID:              id,
		UserID:          userID,
		TaxYear:         taxYear,
		State:           StateStarted,
		Messages:        []Message{},
		ExtractedData:   map[string]any{},
		TopicsCovered:   []Topic{},
		TopicsRemaining: remaining,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// AddMessage appends a message to the transcript.
func (s *Session) AddMessage(role Role, content string, metadata map[string]any) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	s.touch()
}

// MergeExtracted deep-merges data into the extracted data under topic.
func (s *Session) MergeExtracted(topic Topic, data map[string]any) {
	if len(data) == 0 {
		return
	}
	if s.ExtractedData == nil {
		s.ExtractedData = map[string]any{}
	}
	DeepMerge(s.ExtractedData, map[string]any{string(topic): data})
	s.touch()
}

// MergeData deep-merges data into the root of the extracted data.
func (s *Session) MergeData(data map[string]any) {
	if len(data) == 0 {
		return
	}
	if s.ExtractedData == nil {
		s.ExtractedData = map[string]any{}
	}
	DeepMerge(s.ExtractedData, data)
	s.touch()
}

// TopicData returns the extracted fields for topic, or nil.
func (s *Session) TopicData(topic Topic) map[string]any {
	m, _ := s.ExtractedData[string(topic)].(map[string]any)
	return m
}

// MarkTopicCovered moves topic from remaining to covered. Calling it again
// for the same topic changes nothing.
func (s *Session) MarkTopicCovered(topic Topic) {
	if !slices.Contains(s.TopicsCovered, topic) {
		s.TopicsCovered = append(s.TopicsCovered, topic)
	}
	s.TopicsRemaining = slices.DeleteFunc(s.TopicsRemaining, func(t Topic) bool {
		return t == topic
	})
	s.touch()
}

// IsCovered reports whether topic has been marked covered.
func (s *Session) IsCovered(topic Topic) bool {
	return slices.Contains(s.TopicsCovered, topic)
}

// IsRemaining reports whether topic is still to be covered.
func (s *Session) IsRemaining(topic Topic) bool {
	return slices.Contains(s.TopicsRemaining, topic)
}

// RecentMessages returns up to n of the most recent messages.
func (s *Session) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if n >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// LastMessage returns the most recent message from role.
func (s *Session) LastMessage(role Role) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// MarkOrganized records that the completion hand-off reorganized the data.
func (s *Session) MarkOrganized() {
	now := time.Now()
	s.OrganizedAt = &now
	s.touch()
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s

	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		c.Messages[i] = m
		c.Messages[i].Metadata = CloneMap(m.Metadata)
	}
	c.ExtractedData = CloneMap(s.ExtractedData)
	if c.ExtractedData == nil {
		c.ExtractedData = map[string]any{}
	}
	c.TopicsCovered = slices.Clone(s.TopicsCovered)
	c.TopicsRemaining = slices.Clone(s.TopicsRemaining)
	c.Metadata = CloneMap(s.Metadata)
	if s.OrganizedAt != nil {
		t := *s.OrganizedAt
		c.OrganizedAt = &t
	}

	return &c
}
