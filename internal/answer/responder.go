package answer

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const systemRole = "You answer compliance questions strictly from the provided " +
	"control excerpts. Cite control IDs. If the excerpts do not cover the " +
	"question, say so instead of guessing."

// Responder is the hosted-assistant collaborator: given a prompt and
// retrieved context, it returns a textual answer.
type Responder interface {
	Respond(ctx context.Context, prompt, retrieved string) (string, error)
}

// OpenAIResponder answers through an OpenAI-compatible chat endpoint.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(apiKey, baseURL, model string) *OpenAIResponder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIResponder{client: openai.NewClientWithConfig(cfg), model: model}
}

func (r *OpenAIResponder) Respond(ctx context.Context, prompt, retrieved string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", retrieved, prompt)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
