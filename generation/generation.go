// Package generation is the port to text generation providers. Callers build
// a Request and receive a normalized response.Response; providers register a
// Factory under a name and are selected by Config.Provider.
//
//	gen, err := generation.New(ctx, &cfg)
//	resp, err := gen.Generate(ctx, generation.Request{...})
package generation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/core/response"
)

// Sentinel errors for generation calls.
var (
	ErrProvider        = errors.New("generation provider error")
	ErrEmptyResponse   = errors.New("empty generation response")
	ErrUnknownProvider = errors.New("unknown generation provider")
)

// Request is a single generation call. Schema, when set, asks the provider
// for a JSON object conforming to it.
type Request struct {
	SystemPrompt string
	Messages     []protocol.Message
	Schema       map[string]any
	SchemaName   string
	Temperature  float64
	MaxTokens    int
}

// Instructions returns the system prompt with the schema appended, for
// providers that cannot enforce a schema natively.
func (r Request) Instructions() string {
	if len(r.Schema) == 0 {
		return r.SystemPrompt
	}
	schema, err := json.MarshalIndent(r.Schema, "", "  ")
	if err != nil {
		return r.SystemPrompt
	}
	return r.SystemPrompt + "\n\nRespond with a single JSON object matching this schema:\n" + string(schema)
}

// Generator produces text for a Request. Implementations must honor ctx
// cancellation and wrap provider failures with ErrProvider.
type Generator interface {
	Generate(ctx context.Context, req Request) (*response.Response, error)
	Model() string
}

// Canceled reports whether err came from ctx being done rather than from the
// provider. Callers use it to tell an abandoned turn from a failed one.
func Canceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
