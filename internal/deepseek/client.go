package deepseek

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"visaHedgeBot/internal/advisor"
)

const defaultBaseURL = "https://api.deepseek.com/v1"

// Client is an advisor.Generator that talks to DeepSeek through the eino
// OpenAI-compatible chat model.
type Client struct {
	apiKey  string
	model   string
	baseURL string

	once    sync.Once
	chat    *openai.ChatModel
	initErr error
}

func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "deepseek-chat"
	}
	return &Client{apiKey: apiKey, model: model, baseURL: defaultBaseURL}
}

func (c *Client) init(ctx context.Context) error {
	c.once.Do(func() {
		maxTokens := 2048
		c.chat, c.initErr = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   c.baseURL,
			APIKey:    c.apiKey,
			Model:     c.model,
			MaxTokens: &maxTokens,
		})
	})
	return c.initErr
}

func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("deepseek: %w", advisor.ErrNotConfigured)
	}
	if err := c.init(ctx); err != nil {
		return "", fmt.Errorf("deepseek chat model: %w", err)
	}

	msgs := []*schema.Message{}
	if system != "" {
		msgs = append(msgs, schema.SystemMessage(system))
	}
	msgs = append(msgs, schema.UserMessage(prompt))

	out, err := c.chat.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("DeepSeek API error: %w", err)
	}
	if out == nil {
		return "", fmt.Errorf("no response from DeepSeek")
	}
	return out.Content, nil
}
