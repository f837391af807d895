// Package organizer consolidates the data extracted over an interview into
// the four canonical sections before profile normalization.
//
// Extraction happens turn by turn under whatever topic was current, so the
// same figure often lands in the wrong section or under several names. The
// Organizer asks the generator to regroup it, then applies Canonicalize so the
// result does not depend on the model getting names exactly right. Organize
// never fails: any problem yields an untouched copy of the original data.
package organizer

import (
	"context"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/core/structured"
	"github.com/garygangwu/tax-copilot/generation"
	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/session"
)

// OrganizedData is the response shape requested from the generator.
type OrganizedData struct {
	BasicInfo  map[string]any `json:"basic_info" jsonschema:"required"`
	Income     map[string]any `json:"income" jsonschema:"required"`
	Deductions map[string]any `json:"deductions" jsonschema:"required"`
	Dependents map[string]any `json:"dependents" jsonschema:"required"`
}

var organizedSchema = structured.Schema[OrganizedData]()

// Option configures an Organizer.
type Option func(*Organizer)

// WithObserver sets the observer for organizer events.
func WithObserver(o observability.Observer) Option {
	return func(g *Organizer) { g.observer = o }
}

// Organizer regroups extracted interview data.
type Organizer struct {
	gen         generation.Generator
	temperature float64
	maxTokens   int
	observer    observability.Observer
}

// New creates an Organizer that calls gen.
func New(gen generation.Generator, cfg *Config, opts ...Option) *Organizer {
	o := &Organizer{
		gen:         gen,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Organize returns the session's extracted data regrouped into basic_info,
// income, deductions and dependents. On generation failure or malformed
// output it returns a deep copy of the original data instead.
func (o *Organizer) Organize(ctx context.Context, sess *session.Session) map[string]any {
	resp, err := o.gen.Generate(ctx, generation.Request{
		SystemPrompt: buildPrompt(sess),
		Messages:     protocol.InitMessages(protocol.RoleUser, requestText),
		Schema:       organizedSchema,
		SchemaName:   "organized_data",
		Temperature:  o.temperature,
		MaxTokens:    o.maxTokens,
	})
	if err != nil {
		return o.fallback(ctx, sess, err)
	}

	raw, err := structured.Object(resp.Text())
	if err != nil {
		return o.fallback(ctx, sess, err)
	}

	organized := Canonicalize(raw)
	observability.Emit(ctx, o.observer, EventOrganize, observability.LevelInfo, "organizer.Organize", map[string]any{
		"session_id": sess.ID,
		"sections":   len(organized),
	})
	return organized
}

func (o *Organizer) fallback(ctx context.Context, sess *session.Session, err error) map[string]any {
	observability.Emit(ctx, o.observer, EventFallback, observability.LevelWarning, "organizer.Organize", map[string]any{
		"session_id": sess.ID,
		"error":      err.Error(),
	})

	data := session.CloneMap(sess.ExtractedData)
	if data == nil {
		data = map[string]any{}
	}
	return data
}
