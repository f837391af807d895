package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garygangwu/tax-copilot/session"
)

const requestText = "Evaluate if the current topic is complete based on the conversation."

const promptTemplate = `You are a tax interview supervisor evaluating conversation progress.

Current interview state:
- Tax year: %d
- Current topic: %s
- Topics covered: %s
- Topics remaining: %s

Recent conversation:
%s

Data extracted so far:
%s

Decide whether we have collected sufficient information for the current topic (%s).

basic_info is sufficient when the filing status is known. State of residence is optional.
income is sufficient when the primary income sources and amounts are known and the user has indicated there is no other income.
deductions is sufficient when the major deductions are known, or the user has said they have none.
dependents is sufficient when we know whether there are dependents and, if so, their count and ages.
investments is sufficient when investment income was already covered, or the user has none.

Treat "that's all", "no more", "none", "N/A" and a plain "no" to a follow-up as completion signals.

Choose next_action:
- continue_topic when information is still missing
- advance_to_next_topic when this topic is complete; set next_topic to the topic to move to
- complete_interview when every essential topic is covered

Respond with JSON only:
{"topic_complete": true, "reasoning": "one or two sentences", "next_action": "advance_to_next_topic", "next_topic": "deductions", "confidence": "high"}`

func (e *Evaluator) buildPrompt(sess *session.Session, topic session.Topic) string {
	return fmt.Sprintf(promptTemplate,
		sess.TaxYear,
		topic,
		joinTopics(sess.TopicsCovered, "None yet"),
		joinTopics(sess.TopicsRemaining, "None"),
		conversation(sess.RecentMessages(e.historyWindow)),
		DataSummary(sess.ExtractedData, e.sampleKeys),
		topic,
	)
}

func joinTopics(topics []session.Topic, empty string) string {
	if len(topics) == 0 {
		return empty
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func conversation(messages []session.Message) string {
	if len(messages) == 0 {
		return "(no messages yet)"
	}
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch m.Role {
		case session.RoleAgent:
			b.WriteString("Agent: ")
		case session.RoleSystem:
			b.WriteString("System: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

// DataSummary describes extracted data compactly: one line per topic with
// its field count and up to sampleKeys field names.
func DataSummary(data map[string]any, sampleKeys int) string {
	topics := make([]string, 0, len(data))
	for t := range data {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	var lines []string
	for _, t := range topics {
		fields, ok := data[t].(map[string]any)
		if !ok || len(fields) == 0 {
			continue
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sample := keys
		suffix := ""
		if len(sample) > sampleKeys {
			sample = sample[:sampleKeys]
			suffix = ", ..."
		}
		lines = append(lines, fmt.Sprintf("%s: %d fields (%s%s)", t, len(fields), strings.Join(sample, ", "), suffix))
	}

	if len(lines) == 0 {
		return "No data extracted yet"
	}
	return strings.Join(lines, "\n")
}
