package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-matcher/internal/ai"
)

const defaultChatModel = "openai/gpt-3.5-turbo"

type chatMessage struct {
	Role    string `json:"role" mapstructure:"role"`
	Content string `json:"content" mapstructure:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int         `mapstructure:"index"`
	FinishReason string      `mapstructure:"finish_reason"`
	Message      chatMessage `mapstructure:"message"`
}

// Generator implements ai.Generator over the chat completions endpoint.
type Generator struct {
	client *Client
	model  string
}

// NewGenerator creates a chat generator; an empty model selects the default one.
func NewGenerator(client *Client, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultChatModel
	}
	return &Generator{client: client, model: model}
}

// Generate sends a single user message and returns the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openrouter generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	decoded, err := g.client.postJSON(ctx, "/chat/completions", chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var choices []chatChoice
	if err := mapstructure.Decode(decoded["choices"], &choices); err != nil {
		return "", fmt.Errorf("decode choices: %w", err)
	}

	if len(choices) == 0 {
		return "", ai.ErrEmptyResponse
	}

	text := strings.TrimSpace(choices[0].Message.Content)
	if text == "" {
		return "", ai.ErrEmptyResponse
	}

	return text, nil
}

func (g *Generator) Name() string { return providerName }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
