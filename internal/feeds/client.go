package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsemaps/pulsemap/internal/models"
)

// Client fetches feature collections from the collaborator feed endpoints.
// Some endpoints wrap the collection in {"data": ...}; both shapes are
// accepted.
type Client struct {
	httpClient *http.Client
	urls       map[models.SourceKind]string
}

func NewClient(urls map[models.SourceKind]string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		urls:       urls,
	}
}

type feedEnvelope struct {
	Data     json.RawMessage  `json:"data"`
	Type     string           `json:"type"`
	Features []models.Feature `json:"features"`
}

func (c *Client) Fetch(ctx context.Context, kind models.SourceKind) (models.FeatureCollection, error) {
	url, ok := c.urls[kind]
	if !ok || url == "" {
		return models.FeatureCollection{}, fmt.Errorf("no endpoint configured for %s", kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.FeatureCollection{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.FeatureCollection{}, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.FeatureCollection{}, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var env feedEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return models.FeatureCollection{}, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	if len(env.Data) > 0 {
		var fc models.FeatureCollection
		if err := json.Unmarshal(env.Data, &fc); err != nil {
			return models.FeatureCollection{}, fmt.Errorf("error decoding wrapped collection: %w", err)
		}
		return fc, nil
	}
	return models.FeatureCollection{Type: env.Type, Features: env.Features}, nil
}
