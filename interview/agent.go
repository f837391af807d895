// Package interview runs tax interviews: a state machine that walks the user
// through topics, asks generated questions, extracts answers into the
// session, and on completion hands the session to the profile builder.
//
// The Agent initializes from configuration via New, creating every subsystem
// internally. Functional options override any subsystem for testing.
//
//	a, err := interview.New(ctx, &cfg)
//	start, err := a.Start(ctx, "john", 2024)
//	turn, err := a.Continue(ctx, start.SessionID, "I'm single.")
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/evaluator"
	"github.com/garygangwu/tax-copilot/generation"
	"github.com/garygangwu/tax-copilot/observability"
	"github.com/garygangwu/tax-copilot/organizer"
	"github.com/garygangwu/tax-copilot/profile"
	"github.com/garygangwu/tax-copilot/session"
)

// StartResult is the outcome of starting an interview.
type StartResult struct {
	SessionID string        `json:"session_id"`
	Question  string        `json:"first_question"`
	State     session.State `json:"session_state"`
}

// TurnResult is the outcome of one user turn. When the turn completes the
// interview, Profile holds the built profile, or ProfileError the reason the
// hand-off failed. The session stays COMPLETED either way.
type TurnResult struct {
	SessionID    string              `json:"session_id"`
	Response     string              `json:"agent_response"`
	State        session.State       `json:"session_state"`
	Complete     bool                `json:"is_complete"`
	Profile      *profile.TaxProfile `json:"profile,omitempty"`
	ProfileError error               `json:"-"`
}

// ResumeResult describes where a paused interview left off.
type ResumeResult struct {
	SessionID    string        `json:"session_id"`
	LastQuestion string        `json:"last_question"`
	State        session.State `json:"session_state"`
	MessageCount int           `json:"messages_count"`
	TaxYear      int           `json:"tax_year"`
}

// SessionInfo is one entry of a session listing.
type SessionInfo struct {
	SessionID    string        `json:"session_id"`
	UserID       string        `json:"user_id"`
	TaxYear      int           `json:"tax_year"`
	State        session.State `json:"state"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	MessageCount int           `json:"messages_count"`
}

// SessionSummary is a detailed view of one session's progress.
type SessionSummary struct {
	SessionInfo
	TopicsCovered   []session.Topic `json:"topics_covered"`
	TopicsRemaining []session.Topic `json:"topics_remaining"`
	Completeness    float64         `json:"completeness"`
	MissingFields   []string        `json:"missing_fields"`
	ExtractedData   map[string]any  `json:"extracted_data"`
}

// Option configures an Agent after config-driven initialization.
type Option func(*Agent)

// WithGenerator overrides the config-created generator.
func WithGenerator(g generation.Generator) Option {
	return func(a *Agent) { a.gen = g }
}

// WithEvaluator overrides the default completion evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(a *Agent) { a.evaluator = e }
}

// WithOrganizer overrides the default data organizer.
func WithOrganizer(o Organizer) Option {
	return func(a *Agent) { a.organizer = o }
}

// WithSessionStore overrides the config-created session store.
func WithSessionStore(s *session.Store) Option {
	return func(a *Agent) { a.sessions = s }
}

// WithProfileStore overrides the config-created profile store.
func WithProfileStore(s *profile.Store) Option {
	return func(a *Agent) { a.profiles = s }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(a *Agent) { a.observer = o }
}

// Agent orchestrates interviews across sessions.
type Agent struct {
	cfg       Config
	gen       generation.Generator
	evaluator Evaluator
	organizer Organizer
	sessions  *session.Store
	profiles  *profile.Store
	history   *profile.History
	builder   *profile.Builder
	observer  observability.Observer
}

// New creates an Agent from configuration. Subsystems not supplied through
// options are created from their config sections.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Agent, error) {
	a := &Agent{
		cfg:      *cfg,
		builder:  profile.NewBuilder(),
		observer: observability.NewSlogObserver(slog.Default()),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.gen == nil {
		gen, err := generation.New(ctx, &cfg.Generation)
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		a.gen = gen
	}
	if a.evaluator == nil {
		a.evaluator = evaluator.New(a.gen, &cfg.Evaluator, evaluator.WithObserver(a.observer))
	}
	if a.organizer == nil {
		a.organizer = organizer.New(a.gen, &cfg.Organizer, organizer.WithObserver(a.observer))
	}

	if a.sessions == nil {
		sessions, err := session.NewStore(&cfg.Session, session.WithObserver(a.observer))
		if err != nil {
			return nil, fmt.Errorf("failed to create session store: %w", err)
		}
		a.sessions = sessions
	}

	if a.profiles == nil {
		profileOpts := []profile.Option{profile.WithObserver(a.observer)}
		if cfg.Profile.HistoryPath != "" {
			h, err := profile.OpenHistory(cfg.Profile.HistoryPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open profile history: %w", err)
			}
			a.history = h
			profileOpts = append(profileOpts, profile.WithHistory(h))
		}

		profiles, err := profile.NewStore(&cfg.Profile, profileOpts...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create profile store: %w", err)
		}
		a.profiles = profiles
	}

	return a, nil
}

// Close releases resources opened by New.
func (a *Agent) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// Generator returns the agent's generator.
func (a *Agent) Generator() generation.Generator {
	return a.gen
}

// Start creates a session, moves it to basic info collection, and asks the
// opening question.
func (a *Agent) Start(ctx context.Context, userID string, taxYear int) (*StartResult, error) {
	if _, err := profile.Key(userID, taxYear); err != nil {
		return nil, fmt.Errorf("%w: user_id %q", ErrInvalidInput, userID)
	}
	if taxYear < 1900 || taxYear > 2200 {
		return nil, fmt.Errorf("%w: tax_year %d", ErrInvalidInput, taxYear)
	}

	sess, err := a.sessions.Create(ctx, userID, taxYear, nil)
	if err != nil {
		return nil, err
	}
	if err := sess.Transition(session.StateBasicInfo); err != nil {
		return nil, err
	}

	question, err := a.openingQuestion(ctx, taxYear)
	if err != nil {
		return nil, err
	}
	sess.AddMessage(session.RoleAgent, question, nil)

	if err := a.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	observability.Emit(ctx, a.observer, EventStart, observability.LevelInfo, "interview.Agent.Start", map[string]any{
		"session_id": sess.ID,
		"user_id":    userID,
		"tax_year":   taxYear,
	})
	return &StartResult{SessionID: sess.ID, Question: question, State: sess.State}, nil
}

// openingQuestion generates the first question, falling back to fixed text
// on any generation problem other than cancellation.
func (a *Agent) openingQuestion(ctx context.Context, taxYear int) (string, error) {
	resp, err := a.gen.Generate(ctx, generation.Request{
		SystemPrompt: openingPrompt(taxYear),
		Messages:     protocol.InitMessages(protocol.RoleUser, openingRequest),
		Schema:       turnSchema,
		SchemaName:   "interview_turn",
		Temperature:  a.cfg.Temperature,
		MaxTokens:    a.cfg.MaxTokens,
	})
	if err != nil {
		if generation.Canceled(ctx, err) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
		return fmt.Sprintf(openingFallback, taxYear), nil
	}

	out, err := parseTurn(resp.Text())
	if err != nil {
		return fmt.Sprintf(openingFallback, taxYear), nil
	}
	return out.NextQuestion, nil
}

// Continue processes one user message. On the turn that completes the
// interview the session is finalized into a profile.
func (a *Agent) Continue(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	sess, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State == session.StateCompleted {
		return nil, fmt.Errorf("%w: %s", ErrCompleted, sessionID)
	}
	if sess.State == session.StateStarted {
		if err := sess.Transition(session.StateBasicInfo); err != nil {
			return nil, err
		}
	}

	m := NewManager(&a.cfg, sess, a.gen, a.evaluator, a.sessions, a.observer)
	reply, err := m.ProcessUserInput(ctx, text)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		SessionID: sess.ID,
		Response:  reply,
		State:     sess.State,
		Complete:  sess.State == session.StateCompleted,
	}
	if !result.Complete {
		return result, nil
	}

	p, err := a.finalize(ctx, sess)
	if err != nil {
		result.ProfileError = err
		result.Response = fmt.Sprintf(handoffFailure, err)
		return result, nil
	}
	result.Profile = p
	return result, nil
}

// Finalize builds and saves the profile for a completed session. It can be
// re-run after a failed hand-off; data is reorganized only once per session.
func (a *Agent) Finalize(ctx context.Context, sessionID string) (*profile.TaxProfile, error) {
	sess, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateCompleted {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCompleted, sessionID, sess.State)
	}
	return a.finalize(ctx, sess)
}

func (a *Agent) finalize(ctx context.Context, sess *session.Session) (*profile.TaxProfile, error) {
	p, err := a.handoff(ctx, sess)
	if err != nil {
		observability.Emit(context.WithoutCancel(ctx), a.observer, EventFinalizeError, observability.LevelError, "interview.Agent.finalize", map[string]any{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return nil, err
	}

	observability.Emit(ctx, a.observer, EventFinalize, observability.LevelInfo, "interview.Agent.finalize", map[string]any{
		"session_id":   sess.ID,
		"user_id":      p.UserID,
		"tax_year":     p.TaxYear,
		"completeness": profile.Completeness(sess.ExtractedData),
	})
	return p, nil
}

func (a *Agent) handoff(ctx context.Context, sess *session.Session) (*profile.TaxProfile, error) {
	if sess.OrganizedAt == nil {
		organized := a.organizer.Organize(ctx, sess)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sess.ExtractedData = organized
		sess.MarkOrganized()
		if err := a.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
	}

	p, err := a.builder.Build(sess)
	if err != nil {
		return nil, err
	}
	if err := a.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Resume reports where a session left off. It does not modify the session.
func (a *Agent) Resume(ctx context.Context, sessionID string) (*ResumeResult, error) {
	sess, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	last := resumeDefault
	if m, ok := sess.LastMessage(session.RoleAgent); ok {
		last = m.Content
	}
	return &ResumeResult{
		SessionID:    sess.ID,
		LastQuestion: last,
		State:        sess.State,
		MessageCount: len(sess.Messages),
		TaxYear:      sess.TaxYear,
	}, nil
}

// List returns summaries of stored sessions, most recently updated first.
func (a *Agent) List(ctx context.Context, filter session.Filter) ([]SessionInfo, error) {
	sessions, err := a.sessions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	infos := make([]SessionInfo, len(sessions))
	for i, s := range sessions {
		infos[i] = info(s)
	}
	return infos, nil
}

// Summary returns a session's progress, completeness, and extracted data.
func (a *Agent) Summary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	sess, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionSummary{
		SessionInfo:     info(sess),
		TopicsCovered:   sess.TopicsCovered,
		TopicsRemaining: sess.TopicsRemaining,
		Completeness:    profile.Completeness(sess.ExtractedData),
		MissingFields:   profile.MissingFields(sess.ExtractedData),
		ExtractedData:   sess.ExtractedData,
	}, nil
}

// Delete removes a session.
func (a *Agent) Delete(ctx context.Context, sessionID string) error {
	return a.sessions.Delete(ctx, sessionID)
}

// Profile returns the saved profile for a user and tax year.
func (a *Agent) Profile(ctx context.Context, userID string, taxYear int) (*profile.TaxProfile, error) {
	return a.profiles.Load(ctx, userID, taxYear)
}

// Profiles lists saved profiles, optionally for one user.
func (a *Agent) Profiles(ctx context.Context, userID string) ([]*profile.TaxProfile, error) {
	return a.profiles.List(ctx, userID)
}

// ProfileVersions returns the recorded history of a profile. It fails when
// history is not configured.
func (a *Agent) ProfileVersions(ctx context.Context, userID string, taxYear int) ([]profile.Version, error) {
	h := a.profiles.History()
	if h == nil {
		return nil, ErrNoHistory
	}
	return h.Versions(ctx, userID, taxYear)
}

func info(s *session.Session) SessionInfo {
	return SessionInfo{
		SessionID:    s.ID,
		UserID:       s.UserID,
		TaxYear:      s.TaxYear,
		State:        s.State,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
	}
}
