// Package openai adapts the OpenAI Responses API to generation.Generator.
// Importing it registers the "openai" provider.
package openai

import (
	"context"
	"fmt"
	"os"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/garygangwu/tax-copilot/core/protocol"
	"github.com/garygangwu/tax-copilot/core/response"
	"github.com/garygangwu/tax-copilot/generation"
)

func init() {
	generation.Register("openai", New)
}

// Generator calls the OpenAI Responses API.
type Generator struct {
	client *oai.Client
	model  string
}

// New creates an OpenAI Generator. An empty APIKey falls back to the
// OPENAI_API_KEY environment variable. Retries are delegated to the SDK.
func New(_ context.Context, cfg *generation.Config) (generation.Generator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai: api key not configured", generation.ErrProvider)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := oai.NewClient(opts...)
	return &Generator{client: &client, model: cfg.Model}, nil
}

func (g *Generator) Model() string {
	return g.model
}

func (g *Generator) Generate(ctx context.Context, req generation.Request) (*response.Response, error) {
	params := buildParams(g.model, req)

	resp, err := g.client.Responses.New(ctx, params)
	if err != nil {
		if generation.Canceled(ctx, err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: openai: %v", generation.ErrProvider, err)
	}

	text := resp.OutputText()
	if text == "" {
		return nil, fmt.Errorf("%w: openai: %v", generation.ErrProvider, generation.ErrEmptyResponse)
	}

	return &response.Response{
		Content: text,
		Model:   resp.Model,
		Usage: &response.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func buildParams(model string, req generation.Request) responses.ResponseNewParams {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, inputRole(m.Role)))
	}

	params := responses.ResponseNewParams{
		Model:       model,
		Temperature: oai.Float(req.Temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	}
	if req.SystemPrompt != "" {
		params.Instructions = oai.String(req.SystemPrompt)
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = oai.Int(int64(req.MaxTokens))
	}
	if len(req.Schema) > 0 {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   name,
					Schema: req.Schema,
					Strict: oai.Bool(false),
					Type:   "json_schema",
				},
			},
		}
	}

	return params
}

func inputRole(role protocol.Role) responses.EasyInputMessageRole {
	switch role {
	case protocol.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case protocol.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	default:
		return responses.EasyInputMessageRoleUser
	}
}
