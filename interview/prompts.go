package interview

import (
	"fmt"
	"strings"

	"github.com/garygangwu/tax-copilot/session"
)

const (
	jsonFallback      = "I apologize, I had trouble processing that. Could you please rephrase your response?"
	errorFallback     = "I encountered an error: %v. Let's continue - could you tell me more?"
	openingFallback   = "Hi! I'm here to help collect your %d tax information. Let's start with the basics - what's your filing status? Are you filing as single, married filing jointly, married filing separately, or head of household?"
	handoffFailure    = "I collected your information, but had trouble saving it: %v"
	resumeDefault     = "Let's continue where we left off."
	openingRequest    = "Generate the opening question."
	defaultConfidence = "medium"
)

const systemTemplate = `You are a friendly, knowledgeable tax preparation assistant conducting a high-level tax planning interview. Your goal is to collect tax information from the user for their %d tax return.

Your role:
- Ask clear, conversational questions, one at a time
- Use plain language and avoid tax jargon unless necessary
- Be warm and reassuring
- Adapt follow-up questions to the answers you get

Privacy rules. Never ask for:
- Social Security Numbers
- Full legal names
- Dates of birth
- Addresses, phone numbers, or email addresses

Focus on income amounts and sources, deduction categories and amounts, filing status, number and ages of dependents (not names), and state of residence.

Current status:
- Current topic: %s
- Topics already covered: %s

After each user response, extract structured data (numbers, booleans, categories). If the user says something like "around $2,000", extract the number and keep the hedge in your confidence. If the user volunteers personal identifiers, do not store them in extracted_data. Data that clearly belongs to another topic may be nested under that topic's name (basic_info, income, deductions, dependents, investments).

Respond as JSON with:
- "next_question": your next question to the user
- "extracted_data": structured data from their last answer, or null
- "confidence": "high", "medium", or "low"
- "reasoning": what you learned and why you are asking this next

Example:
{"next_question": "Got it! Did you work at both companies for the full year?", "extracted_data": {"w2_count": 2}, "confidence": "high", "reasoning": "User mentioned two employers."}`

const openingTemplate = `You are starting a high-level tax planning interview for the %d tax year.

Do not ask for personal identifiers such as names, SSNs, dates of birth, or addresses.

Generate a warm, welcoming opening question that starts with the user's filing status.

Respond as JSON with:
- "next_question": a friendly opening question about filing status (single, married filing jointly, and so on)
- "extracted_data": null
- "confidence": "high"
- "reasoning": why this is the right starting point`

// topicLabel names what the interview is doing in state s.
func topicLabel(s session.State) string {
	if t, ok := s.Topic(); ok {
		return string(t)
	}
	switch s {
	case session.StateStarted:
		return "getting_started"
	case session.StateCompleted:
		return "completed"
	}
	return "general"
}

func systemPrompt(sess *session.Session) string {
	covered := "none yet"
	if len(sess.TopicsCovered) > 0 {
		names := make([]string, len(sess.TopicsCovered))
		for i, t := range sess.TopicsCovered {
			names[i] = string(t)
		}
		covered = strings.Join(names, ", ")
	}
	return fmt.Sprintf(systemTemplate, sess.TaxYear, topicLabel(sess.State), covered)
}

func openingPrompt(taxYear int) string {
	return fmt.Sprintf(openingTemplate, taxYear)
}
