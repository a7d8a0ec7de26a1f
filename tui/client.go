package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ainewsbot/types"
)

// Client is a thin HTTP client for the ainewsbot API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Status is the decoded body of GET /api/status.
type Status struct {
	types.StatusResponse
	NextRun *time.Time `json:"next_run,omitempty"`
}

// GetStatus fetches the current coordinator status.
func (c *Client) GetStatus() (*Status, error) {
	resp, err := c.client.Get(c.baseURL + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}

// StartCycle asks the service to run a cycle now. A running cycle yields
// types.ErrCycleInProgress.
func (c *Client) StartCycle() error {
	resp, err := c.client.Post(c.baseURL+"/api/cycles", "application/json", strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("failed to start cycle: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil
	case http.StatusConflict:
		return types.ErrCycleInProgress
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
