// Package mock provides a scripted Generator for tests.
//
// Replies are consumed in order; when the script is exhausted the fallback
// reply is returned, and without a fallback the call fails with
// generation.ErrProvider.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/garygangwu/tax-copilot/core/response"
	"github.com/garygangwu/tax-copilot/generation"
)

// Reply is one scripted outcome.
type Reply struct {
	Content string
	Err     error
}

// Text scripts a plain text reply.
func Text(content string) Reply {
	return Reply{Content: content}
}

// JSON scripts a reply containing v encoded as JSON.
func JSON(v any) Reply {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Content: string(data)}
}

// Fail scripts a provider failure.
func Fail(err error) Reply {
	return Reply{Err: fmt.Errorf("%w: %v", generation.ErrProvider, err)}
}

// Handler computes a reply from the request.
type Handler func(ctx context.Context, req generation.Request) Reply

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the reported model name.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithReplies appends scripted replies.
func WithReplies(replies ...Reply) Option {
	return func(g *Generator) { g.replies = append(g.replies, replies...) }
}

// WithFallback sets the reply used once the script is exhausted.
func WithFallback(r Reply) Option {
	return func(g *Generator) { g.fallback = &r }
}

// WithHandler routes every call through h, ignoring scripted replies.
func WithHandler(h Handler) Option {
	return func(g *Generator) { g.handler = h }
}

// Generator is a deterministic generation.Generator. Safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	model    string
	replies  []Reply
	fallback *Reply
	handler  Handler
	requests []generation.Request
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{model: "mock"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Model() string {
	return g.model
}

func (g *Generator) Generate(ctx context.Context, req generation.Request) (*response.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.requests = append(g.requests, req)
	var reply Reply
	switch {
	case g.handler != nil:
		handler := g.handler
		g.mu.Unlock()
		reply = handler(ctx, req)
		g.mu.Lock()
	case len(g.replies) > 0:
		reply = g.replies[0]
		g.replies = g.replies[1:]
	case g.fallback != nil:
		reply = *g.fallback
	default:
		reply = Reply{Err: fmt.Errorf("%w: no scripted reply", generation.ErrProvider)}
	}
	g.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &response.Response{Content: reply.Content, Model: g.model}, nil
}

// Requests returns every request received, in order.
func (g *Generator) Requests() []generation.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]generation.Request(nil), g.requests...)
}

// Calls returns the number of Generate calls.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
