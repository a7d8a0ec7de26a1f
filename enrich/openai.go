package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ainewsbot/types"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Summarizer using the Chat Completions API
// Endpoint: POST https://api.openai.com/v1/chat/completions
// Request: {"model": "...", "messages": [{"role": "system", ...}, {"role": "user", ...}]}
// Response: {"choices": [{"message": {"content": "..."}}]}
type OpenAI struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client

	// Organization is sent as OpenAI-Organization when set.
	Organization string
}

// NewOpenAI creates an OpenAI summarizer. An empty endpoint means the public API.
func NewOpenAI(apiKey, model, endpoint string, client *http.Client) *OpenAI {
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{apiKey: apiKey, model: model, endpoint: endpoint, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAI) Summarize(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": o.model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		"max_tokens":  600,
		"temperature": 0.3,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", &types.ServiceError{Op: "openai encode", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewBuffer(b))
	if err != nil {
		return "", &types.ServiceError{Op: "openai request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))
	if o.Organization != "" {
		req.Header.Set("OpenAI-Organization", o.Organization)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &types.ServiceError{Op: "openai call", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &types.ServiceError{Op: "openai call", Cause: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var parsed struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &types.ServiceError{Op: "openai decode", Cause: err}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &types.ServiceError{Op: "openai decode", Cause: errors.New("empty completion")}
	}
	return parsed.Choices[0].Message.Content, nil
}
