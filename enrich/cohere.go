package enrich

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"strings"
	"time"

	"ainewsbot/types"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Cohere implements Summarizer using the Cohere Chat API
// SDK: github.com/cohere-ai/cohere-go/v2
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere creates a Cohere summarizer.
func NewCohere(apiKey, model string) *Cohere {
	// HTTP/1.1 only; the API has been flaky over HTTP/2
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &Cohere{client: client, model: model}
}

func (c *Cohere) Summarize(ctx context.Context, prompt string) (string, error) {
	preamble := systemPrompt
	temperature := 0.3
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:     prompt,
		Model:       &c.model,
		Preamble:    &preamble,
		Temperature: &temperature,
	})
	if err != nil {
		return "", &types.ServiceError{Op: "cohere chat", Cause: err}
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", &types.ServiceError{Op: "cohere chat", Cause: errors.New("empty response")}
	}
	return resp.Text, nil
}
