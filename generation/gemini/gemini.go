// Package gemini adapts the Google Gen AI SDK to generation.Generator.
// Importing it registers the "gemini" provider.
package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/core/response"
	"github.com/garygangwu/tax-copilot/generation"
)

func init() {
	generation.Register("gemini", New)
}

// Generator calls the Gemini API.
type Generator struct {
	client     *genai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

// New creates a Gemini Generator. An empty APIKey falls back to the
// GEMINI_API_KEY environment variable.
func New(ctx context.Context, cfg *generation.Config) (generation.Generator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %v", generation.ErrProvider, err)
	}

	return &Generator{
		client:     client,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func (g *Generator) Model() string {
	return g.model
}

func (g *Generator) Generate(ctx context.Context, req generation.Request) (*response.Response, error) {
	contents, system := buildContents(req)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(req.Schema) > 0 {
		config.ResponseMIMEType = "application/json"
	}

	var resp *genai.GenerateContentResponse
	err := generation.Retry(ctx, g.maxRetries, g.retryDelay, func(ctx context.Context) error {
		r, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err != nil {
			return err
		}
		if len(r.Candidates) == 0 || r.Candidates[0].Content == nil || len(r.Candidates[0].Content.Parts) == 0 {
			return generation.ErrEmptyResponse
		}
		resp = r
		return nil
	})
	if err != nil {
		if generation.Canceled(ctx, err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: gemini: %v", generation.ErrProvider, err)
	}

	out := &response.Response{
		Content: candidateText(resp.Candidates[0].Content),
		Model:   g.model,
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &response.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// buildContents maps the conversation onto Gemini roles. System messages in
// the history are folded into the system instruction.
func buildContents(req generation.Request) ([]*genai.Content, string) {
	system := []string{req.Instructions()}
	contents := make([]*genai.Content, 0, len(req.Messages))

	for _, m := range req.Messages {
		switch m.Role {
		case protocol.RoleSystem:
			system = append(system, m.Content)
		case protocol.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("Begin.", genai.RoleUser))
	}

	return contents, strings.TrimSpace(strings.Join(system, "\n\n"))
}

// candidateText joins the text parts of a candidate, skipping thoughts.
func candidateText(c *genai.Content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
