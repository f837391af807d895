package interview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/core/structured"
	"github.com/garygangwu/tax-copilot/session"
)

// TurnOutput is the response shape requested for every question.
type TurnOutput struct {
	NextQuestion  string         `json:"next_question" jsonschema:"required"`
	ExtractedData map[string]any `json:"extracted_data" jsonschema:"required"`
	Confidence    string         `json:"confidence" jsonschema:"required,enum=high,enum=medium,enum=low"`
	Reasoning     string         `json:"reasoning" jsonschema:"required"`
}

var turnSchema = structured.Schema[TurnOutput]()

var errNoQuestion = errors.New("no next_question")

// parseTurn decodes generator output. A response without a question counts as
// malformed.
func parseTurn(text string) (TurnOutput, error) {
	var out TurnOutput
	if err := structured.Decode(text, &out); err != nil {
		return TurnOutput{}, err
	}
	out.NextQuestion = strings.TrimSpace(out.NextQuestion)
	if out.NextQuestion == "" {
		return TurnOutput{}, fmt.Errorf("%w: %w", structured.ErrMalformed, errNoQuestion)
	}
	if out.Confidence == "" {
		out.Confidence = defaultConfidence
	}
	return out, nil
}

// history converts the transcript into generation messages. Agent turns
// become assistant messages; system notes are not sent.
func history(messages []session.Message) []protocol.Message {
	out := make([]protocol.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case session.RoleUser:
			out = append(out, protocol.NewMessage(protocol.RoleUser, m.Content))
		case session.RoleAgent:
			out = append(out, protocol.NewMessage(protocol.RoleAssistant, m.Content))
		}
	}
	return out
}

// routeExtracted merges extracted data into the session. Keys naming a topic
// with an object value merge under that topic; everything else merges under
// fallback.
func routeExtracted(sess *session.Session, data map[string]any, fallback session.Topic) {
	rest := map[string]any{}
	for k, v := range data {
		if m, ok := v.(map[string]any); ok && session.IsTopic(k) {
			sess.MergeExtracted(session.Topic(k), m)
			continue
		}
		rest[k] = v
	}
	sess.MergeExtracted(fallback, rest)
}

// dataTopic is where untargeted extracted data lands: the current topic, or
// outside a collecting state the most recently covered topic.
func dataTopic(sess *session.Session) session.Topic {
	if t, ok := sess.State.Topic(); ok {
		return t
	}
	if n := len(sess.TopicsCovered); n > 0 {
		return sess.TopicsCovered[n-1]
	}
	return session.TopicBasicInfo
}
