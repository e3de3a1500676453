package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxrelay/domain/entities"
)

// Client pushes enriched results to the dashboard update endpoint. It is
// observability, not correctness-critical: the timeout is sub-second and the
// pipeline discards the returned error after logging it.
type Client struct {
	updateURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a dashboard forwarder.
func NewClient(updateURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		updateURL: updateURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Forward POSTs the result as JSON. Non-2xx and transport failures are errors.
func (c *Client) Forward(ctx context.Context, result *entities.EnrichedResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.updateURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard returned %d", resp.StatusCode)
	}
	return nil
}
