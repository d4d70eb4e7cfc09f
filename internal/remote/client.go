// Package remote implements the HTTP client for the document store backing
// feeds and chat. The store is treated as untrusted and partial: every
// response is validated, and auth failures are classified so upstream layers
// can force re-authentication instead of silently falling back to cache.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sahayakapp/sahayak-core/internal/domain"
)

// Client talks to the remote document collaborator. It implements
// domain.EntitySource and domain.MessageStore.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a client for the document API at baseURL. The API key is
// attached to every request.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)

	return &Client{http: r, logger: logger}
}

type listResponse struct {
	Items  []domain.Entity `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
	Total  int             `json:"total"`
}

type messageListResponse struct {
	Items []domain.Message `json:"items"`
	Total int              `json:"total"`
}

// ListEntities performs one paginated fetch against a collection. The cursor
// is forwarded verbatim; the remote defines item order and the page is
// returned untouched.
func (c *Client) ListEntities(ctx context.Context, q domain.EntityQuery) (domain.FeedPage, error) {
	req := c.http.R().SetContext(ctx)

	if q.Category != "" {
		req.SetQueryParam("category", q.Category)
	}
	if q.Search != "" {
		req.SetQueryParam("search", q.Search)
	}
	if q.Sort != "" {
		req.SetQueryParam("sort", q.Sort)
	}
	if q.Cursor != "" {
		req.SetQueryParam("cursor", q.Cursor)
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}

	var out listResponse
	resp, err := req.SetResult(&out).Get("/v1/collections/" + q.Collection + "/documents")
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("list %s: %w", q.Collection, err)
	}
	if err := classifyStatus(resp); err != nil {
		return domain.FeedPage{}, fmt.Errorf("list %s: %w", q.Collection, err)
	}

	return domain.FeedPage{Items: out.Items, Cursor: out.Cursor}, nil
}

// GetEntity fetches a single document by id.
func (c *Client) GetEntity(ctx context.Context, collection, id string) (*domain.Entity, error) {
	var out domain.Entity
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/collections/" + collection + "/documents/" + id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := classifyStatus(resp); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &out, nil
}

// CreateEntity writes a new document into a collection.
func (c *Client) CreateEntity(ctx context.Context, collection string, e domain.Entity) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(e).
		Post("/v1/collections/" + collection + "/documents")
	if err != nil {
		return fmt.Errorf("create %s: %w", collection, err)
	}
	if err := classifyStatus(resp); err != nil {
		return fmt.Errorf("create %s: %w", collection, err)
	}
	return nil
}

// RecentMessages returns up to limit messages for a channel, newest first.
func (c *Client) RecentMessages(ctx context.Context, channel string, limit int) ([]domain.Message, error) {
	var out messageListResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"channel": channel,
			"sort":    "createdAt",
			"order":   "desc",
			"limit":   strconv.Itoa(limit),
		}).
		SetResult(&out).
		Get("/v1/collections/messages/documents")
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", channel, err)
	}
	if err := classifyStatus(resp); err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", channel, err)
	}
	return out.Items, nil
}

// CreateMessage persists a new message document. The sender's own copy comes
// back through the push stream; nothing is echoed locally.
func (c *Client) CreateMessage(ctx context.Context, msg domain.Message) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/v1/collections/messages/documents")
	if err != nil {
		return fmt.Errorf("create message in %s: %w", msg.Channel, err)
	}
	if err := classifyStatus(resp); err != nil {
		return fmt.Errorf("create message in %s: %w", msg.Channel, err)
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the core's error taxonomy.
// 401/403 wrap domain.ErrUnauthorized; everything else non-2xx is a plain
// transient failure.
func classifyStatus(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("status %d: %w", resp.StatusCode(), domain.ErrUnauthorized)
	default:
		return fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
