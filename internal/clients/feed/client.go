package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/sync"
)

// Client pulls incremental updates from the orientation feed. Requests are
// single-shot with no retries; a failed fetch simply means this sync cycle
// did not happen.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a feed client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch asks the feed for everything that changed since the given version
// marker. Returns (nil, nil) when the feed reports no changes (204 or empty
// body); otherwise the parsed payload.
func (c *Client) Fetch(ctx context.Context, version int64) (*sync.Payload, error) {
	url := fmt.Sprintf("%s/api/v2/events/feed/%d", c.baseURL, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed response: %w", err)
	}
	if len(body) == 0 {
		// An empty 200 body also means "already up to date".
		return nil, nil
	}

	payload, err := sync.ParsePayload(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Feed payload fetched",
		zap.Int64("since_version", version),
		zap.Int64("payload_version", payload.Timestamp),
		zap.Int("bytes", len(body)),
	)
	return payload, nil
}
