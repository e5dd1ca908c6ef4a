// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/invoice-recon/internal/httputil"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-sonnet-4-5"

// ClaudeBackend calls the Claude Messages API with the page image as a
// base64 image block.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

// claudeBlock is a text or image content block in a request.
type claudeBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Extract sends one page image with the extraction prompt.
func (c *ClaudeBackend) Extract(ctx context.Context, image []byte) (AIResponse, error) {
	prompt, err := renderPrompt()
	if err != nil {
		return AIResponse{}, fmt.Errorf("rendering prompt: %w", err)
	}

	model := c.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	reqBody := claudeRequest{
		Model:     model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{
				Role: "user",
				Content: []claudeBlock{
					{
						Type: "image",
						Source: &claudeImageSource{
							Type:      "base64",
							MediaType: mediaType(image),
							Data:      base64.StdEncoding.EncodeToString(image),
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return AIResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return AIResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return AIResponse{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return AIResponse{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return AIResponse{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	if len(cResp.Content) == 0 {
		return AIResponse{}, fmt.Errorf("Claude API returned empty content")
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		return parseResponse(block.Text)
	}

	return AIResponse{}, fmt.Errorf("no text content in Claude API response")
}

// mediaType sniffs the image format. Rendered pages are PNG; anything the
// sniffer does not recognise as an image is sent as PNG too.
func mediaType(image []byte) string {
	ct := http.DetectContentType(image)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/png"
}
