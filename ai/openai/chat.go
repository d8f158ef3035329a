// Package openai implements the ai capability interfaces against an
// OpenAI-compatible HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/AnselmPowell/gov-project/ai"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	chatEndpoint        = "/chat/completions"
	defaultChatModel    = "gpt-4o-mini"
	defaultTemperature  = 0.3
	defaultHTTPClientTO = 120 * time.Second
)

// ChatClient calls the chat completions endpoint with a forced function
// call so responses arrive as structured JSON arguments.
type ChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewChatClient constructs a ChatClient, falling back to the
// OPENAI_API_KEY environment variable and default model.
func NewChatClient(apiKey, model string) *ChatClient {
	c := &ChatClient{
		BaseURL:     defaultBaseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: defaultTemperature,
		HTTPClient:  &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Model == "" {
		c.Model = defaultChatModel
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFunction struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

type chatRequest struct {
	Model        string         `json:"model"`
	Messages     []chatMessage  `json:"messages"`
	Temperature  float64        `json:"temperature"`
	Functions    []chatFunction `json:"functions,omitempty"`
	FunctionCall map[string]any `json:"function_call,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content      string `json:"content"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends prompt as a system message and returns the function-call
// arguments payload verbatim. Callers own schema validation.
func (c *ChatClient) Complete(ctx context.Context, prompt string, fn ai.Function) (json.RawMessage, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:        c.Model,
		Messages:     []chatMessage{{Role: "system", Content: prompt}},
		Temperature:  c.Temperature,
		Functions:    []chatFunction{{Name: fn.Name, Parameters: fn.Parameters}},
		FunctionCall: map[string]any{"name": fn.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+chatEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("API error (%s): %s", payload.Error.Type, payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	call := payload.Choices[0].Message.FunctionCall
	if call == nil || call.Arguments == "" {
		return nil, fmt.Errorf("response missing function call %q", fn.Name)
	}
	return json.RawMessage(call.Arguments), nil
}
