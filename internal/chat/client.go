package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsemaps/pulsemap/internal/geo"
)

// Request is the wire shape the chat collaborator accepts.
type Request struct {
	Message      string          `json:"message"`
	SessionID    string          `json:"session_id"`
	UserLocation *geo.Coordinate `json:"user_location,omitempty"`
	PhotoURL     string          `json:"photo_url,omitempty"`
}

// Response is the assistant's reply. ToolUsed names the tool the assistant
// invoked during the turn, if any.
type Response struct {
	Reply    string `json:"reply"`
	ToolUsed string `json:"tool_used,omitempty"`
}

// Client posts chat turns to the assistant endpoint.
type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("error encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return out, nil
}
