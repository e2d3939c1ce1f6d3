package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client consumes the content backend's REST API. Every request carries the
// bearer token and the locale/publication-state parameters; list endpoints
// additionally compose field-level filter predicates.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new backend client. baseURL is the backend root
// without the trailing /api.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// listEnvelope is the backend's list response wrapper
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// singleEnvelope is the backend's single-entity response wrapper
type singleEnvelope[T any] struct {
	Data *T `json:"data"`
}

func baseQuery(locale string) url.Values {
	q := url.Values{}
	q.Set("populate", "*")
	q.Set("publicationState", "live")
	if locale != "" {
		q.Set("locale", locale)
	}
	return q
}

// robotPredicates appends robot field predicates under the given filter
// prefix (empty for the robots endpoint, "[robots]" when filtering families
// by their robots).
func robotPredicates(q url.Values, prefix string, f RobotQuery) {
	if f.FamilyID != "" {
		q.Set("filters"+prefix+"[family][documentId][$eq]", f.FamilyID)
	}
	if f.IndustryID != "" {
		q.Set("filters"+prefix+"[industries][documentId][$eq]", f.IndustryID)
	}
	if f.Filters == nil {
		return
	}
	t := f.Filters
	if t.PayloadMin != nil {
		q.Set("filters"+prefix+"[max_payload_kg][$gte]", formatFloat(*t.PayloadMin))
	}
	if t.PayloadMax != nil {
		q.Set("filters"+prefix+"[max_payload_kg][$lte]", formatFloat(*t.PayloadMax))
	}
	if t.ReachMin != nil {
		q.Set("filters"+prefix+"[max_reach_mm][$gte]", strconv.Itoa(*t.ReachMin))
	}
	if t.ReachMax != nil {
		q.Set("filters"+prefix+"[max_reach_mm][$lte]", strconv.Itoa(*t.ReachMax))
	}
	if t.Axes != nil {
		q.Set("filters"+prefix+"[axes][$eq]", strconv.Itoa(*t.Axes))
	}
	if t.Collaborative != nil {
		q.Set("filters"+prefix+"[collaborative][$eq]", strconv.FormatBool(*t.Collaborative))
	}
	if t.Protection != "" {
		q.Set("filters"+prefix+"[protection][$eq]", t.Protection)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// doGet performs an authenticated GET and returns the raw body
func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, path); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(status int, path string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrUnauthorized, path, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		return fmt.Errorf("backend returned status %d for %s", status, path)
	}
}

// absoluteMediaURL resolves a backend-relative media path against the
// backend base URL. Absolute URLs pass through untouched.
func (c *Client) absoluteMediaURL(mediaURL string) string {
	if mediaURL == "" || strings.HasPrefix(mediaURL, "http") {
		return mediaURL
	}
	return c.baseURL + mediaURL
}
