// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend reads invoice pages with an OpenAI vision model through
// the chat completions API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend returns a backend using apiKey. An empty model selects
// GPT-4o.
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	return newOpenAIBackend(openai.DefaultConfig(apiKey), model)
}

func newOpenAIBackend(cfg openai.ClientConfig, model string) *OpenAIBackend {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model}
}

// Extract sends the page as a data URL alongside the extraction prompt and
// asks for a JSON object response.
func (o *OpenAIBackend) Extract(ctx context.Context, image []byte) (AIResponse, error) {
	prompt, err := renderPrompt()
	if err != nil {
		return AIResponse{}, fmt.Errorf("rendering prompt: %w", err)
	}

	imageURL := fmt.Sprintf("data:%s;base64,%s", mediaType(image), base64.StdEncoding.EncodeToString(image))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return AIResponse{}, fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return AIResponse{}, fmt.Errorf("OpenAI API returned no choices")
	}

	return parseResponse(resp.Choices[0].Message.Content)
}
