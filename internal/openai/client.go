package openai

import (
	"context"
	"fmt"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"visaHedgeBot/internal/advisor"
)

const maxTokens = 1500

// Client is an advisor.Generator backed by the OpenAI chat completions API.
type Client struct {
	cli   oa.Client
	model string
	ready bool
}

func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		cli:   oa.NewClient(opts...),
		model: model,
		ready: apiKey != "",
	}
}

func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if !c.ready {
		return "", fmt.Errorf("openai: %w", advisor.ErrNotConfigured)
	}

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: oa.ChatModel(c.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(system),
			oa.UserMessage(prompt),
		},
		MaxTokens: oa.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
