// Package zotero is a typed client for the Zotero Web API v3.
package zotero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Zotero API endpoint.
const DefaultBaseURL = "https://api.zotero.org"

const apiVersion = "3"

// ErrUnavailable marks a network-level failure reaching the Zotero API
// (no response at all, as opposed to a non-2xx response).
var ErrUnavailable = errors.New("upstream unavailable")

// UpstreamError is a non-2xx response from the Zotero API. The scan and
// attachment paths propagate it unchanged so handlers can surface the
// upstream status code and body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

// Client talks to one user library on the Zotero API. Requests are
// sequential and blocking; there are no retries.
type Client struct {
	UserID  string
	APIKey  string
	BaseURL string

	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a client for the given user library. The HTTP client
// carries a fixed timeout so a slow upstream call cannot hang a worker; a
// non-positive timeout falls back to 30 seconds.
func NewClient(userID, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		UserID:  userID,
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ItemsOptions selects and pages the item listing.
type ItemsOptions struct {
	Start         int
	Limit         int
	Q             string // server-side quick search
	ItemType      string
	Tag           string
	CollectionKey string // scope to one collection
	Top           bool   // top-level items only
	// ExcludeAttachments asks the server to filter attachment records out
	// of the page itself. Ignored when ItemType is set.
	ExcludeAttachments bool
}

// Items lists items from the library or, when CollectionKey is set, from
// one collection.
func (c *Client) Items(ctx context.Context, opts ItemsOptions) ([]Item, error) {
	path := "/items"
	if opts.CollectionKey != "" {
		path = "/collections/" + url.PathEscape(opts.CollectionKey) + "/items"
	}
	if opts.Top {
		path += "/top"
	}

	params := url.Values{}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Start > 0 {
		params.Set("start", strconv.Itoa(opts.Start))
	}
	if opts.Q != "" {
		params.Set("q", opts.Q)
	}
	if opts.Tag != "" {
		params.Set("tag", opts.Tag)
	}
	switch {
	case opts.ItemType != "":
		params.Set("itemType", opts.ItemType)
	case opts.ExcludeAttachments:
		params.Set("itemType", "-attachment")
	}

	var items []Item
	if err := c.getJSON(ctx, path, params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Children lists the child items (attachments, notes) of one item.
func (c *Client) Children(ctx context.Context, itemKey string) ([]Item, error) {
	var items []Item
	path := "/items/" + url.PathEscape(itemKey) + "/children"
	if err := c.getJSON(ctx, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Collections lists all collections in the library.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var cols []Collection
	if err := c.getJSON(ctx, "/collections", nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// Item fetches a single item by key.
func (c *Client) Item(ctx context.Context, key string) (*Item, error) {
	var it Item
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(key), nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// Attachment is a downloaded attachment body with the metadata the upstream
// declared for it. Disposition is the verbatim Content-Disposition header,
// empty when upstream sent none.
type Attachment struct {
	Data        []byte
	ContentType string
	Disposition string
}

// File downloads the binary content of an attachment.
func (c *Client) File(ctx context.Context, key string) (*Attachment, error) {
	resp, err := c.do(ctx, "/items/"+url.PathEscape(key)+"/file", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read attachment %s: %w", key, err)
	}
	return &Attachment{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Disposition: resp.Header.Get("Content-Disposition"),
	}, nil
}

// Ping probes the library with a minimal listing request and returns the
// upstream HTTP status code. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, "/items", url.Values{"limit": {"1"}})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	resp, err := c.do(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response for %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.BaseURL + "/users/" + url.PathEscape(c.UserID) + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Key", c.APIKey)
	req.Header.Set("Zotero-API-Version", apiVersion)

	c.logger.Debug("upstream request", zap.String("url", reqURL))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
}
