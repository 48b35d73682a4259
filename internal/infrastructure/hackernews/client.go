package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

const defaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// Feed names accepted by ListIDs.
const (
	FeedNew  = "newstories"
	FeedTop  = "topstories"
	FeedBest = "beststories"
	FeedAsk  = "askstories"
	FeedShow = "showstories"
	FeedJob  = "jobstories"
)

// Client talks to the HackerNews Firebase API.
type Client struct {
	baseURL string
	feed    string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.ItemSource = (*Client)(nil)

// NewClient wires an HTTP client; nil falls back to a 20s-timeout default.
func NewClient(baseURL, feed string, client *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if feed == "" {
		feed = FeedNew
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{baseURL: baseURL, feed: feed, client: client, logger: logger}
}

// Item fetches a single item by ID. A (nil, nil) return means the item does
// not exist upstream; a non-nil error means a transient fetch failure.
func (c *Client) Item(ctx context.Context, id int) (*domain.Item, error) {
	body, err := c.get(ctx, fmt.Sprintf("item/%d.json", id))
	if err != nil {
		return nil, fmt.Errorf("fetch item %d: %w", id, err)
	}

	// The API returns a literal null for unknown IDs.
	if isJSONNull(body) {
		return nil, nil
	}

	var item domain.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode item %d: %w", id, err)
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// MaxItemID returns the source's current maximum item ID, or 0 on failure.
func (c *Client) MaxItemID(ctx context.Context) int {
	body, err := c.get(ctx, "maxitem.json")
	if err != nil {
		c.warn("fetch max item id", err)
		return 0
	}

	var max int
	if err := json.Unmarshal(body, &max); err != nil {
		c.warn("decode max item id", err)
		return 0
	}
	return max
}

// NewestIDs returns the configured feed's ID list (newest first), or an
// empty list on failure.
func (c *Client) NewestIDs(ctx context.Context) []int {
	return c.ListIDs(ctx, c.feed)
}

// ListIDs fetches any of the story feeds by name.
func (c *Client) ListIDs(ctx context.Context, feed string) []int {
	body, err := c.get(ctx, feed+".json")
	if err != nil {
		c.warn("fetch "+feed, err)
		return []int{}
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		c.warn("decode "+feed, err)
		return []int{}
	}
	return ids
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "hnbriefs/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hackernews returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (c *Client) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "error", err)
	}
}

func isJSONNull(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return trimmed == "" || trimmed == "null"
}
