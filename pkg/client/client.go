// Package client is a Go SDK for the configurator-engine API
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/smartconfig/configurator-engine/internal/models"
)

// Client is a Go SDK for the configurator-engine API
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new configurator-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session is the API's session view: the persisted session plus the
// derived cart total and active filter count
type Session struct {
	ID                    string               `json:"id"`
	Language              string               `json:"language"`
	EntryMode             models.EntryMode     `json:"entry_mode,omitempty"`
	CurrentStep           models.Step          `json:"current_step"`
	PreviousStep          models.Step          `json:"previous_step,omitempty"`
	LastStepBeforeSummary models.Step          `json:"last_step_before_summary,omitempty"`
	Filters               models.FilterState   `json:"filters"`
	Selection             models.Selection     `json:"selection"`
	Cart                  []models.SummaryItem `json:"cart"`
	CartTotal             float64              `json:"cart_total"`
	ActiveFilters         int                  `json:"active_filters"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
	ExpiresAt             time.Time            `json:"expires_at"`
}

// AccessorySet is a robot's accessory picture: mandatory and optional
// links plus the exclusion pairs between them
type AccessorySet struct {
	Mandatory  []models.AccessoryLink      `json:"mandatory"`
	Optional   []models.AccessoryLink      `json:"optional"`
	Exclusions []models.AccessoryExclusion `json:"exclusions"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIError is a structured error returned by the engine
type APIError struct {
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("API error: %s - %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// Session lifecycle

// CreateSession starts a new configurator session
func (c *Client) CreateSession(ctx context.Context, language string) (*Session, error) {
	body := map[string]string{}
	if language != "" {
		body["language"] = language
	}
	return c.sessionCall(ctx, "POST", "/api/v1/sessions", body)
}

// GetSession retrieves a session by ID
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "GET", "/api/v1/sessions/"+id, nil)
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	var out json.RawMessage
	return c.call(ctx, "DELETE", "/api/v1/sessions/"+id, nil, &out)
}

// Wizard actions

// SetMode records the entry mode chosen on the MODE step
func (c *Client) SetMode(ctx context.Context, id string, mode models.EntryMode) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/mode", map[string]models.EntryMode{"mode": mode})
}

// SetLanguage switches the session locale
func (c *Client) SetLanguage(ctx context.Context, id, language string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/language", map[string]string{"language": language})
}

// SelectIndustry records the industry choice
func (c *Client) SelectIndustry(ctx context.Context, id, industryID string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/industry", map[string]string{"industry_id": industryID})
}

// SelectFamily records the family choice
func (c *Client) SelectFamily(ctx context.Context, id, familyID string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/family", map[string]string{"family_id": familyID})
}

// SelectRobot opens a robot configuration with its default controller and
// mandatory accessories
func (c *Client) SelectRobot(ctx context.Context, id, robotID string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/robot", map[string]string{"robot_id": robotID})
}

// ClearRobot drops the in-progress robot configuration
func (c *Client) ClearRobot(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "DELETE", "/api/v1/sessions/"+id+"/robot", nil)
}

// SelectController overrides the controller choice
func (c *Client) SelectController(ctx context.Context, id, controllerID string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/controller", map[string]string{"controller_id": controllerID})
}

// ToggleAccessory flips an optional accessory on or off
func (c *Client) ToggleAccessory(ctx context.Context, id, accessoryID string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/accessories/toggle", map[string]string{"accessory_id": accessoryID})
}

// SetAccessoryQuantity updates a selected accessory's quantity
func (c *Client) SetAccessoryQuantity(ctx context.Context, id, accessoryID string, quantity int) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/accessories/quantity", map[string]interface{}{
		"accessory_id": accessoryID,
		"quantity":     quantity,
	})
}

// Filters

// UpdateFilters replaces the technical filter draft
func (c *Client) UpdateFilters(ctx context.Context, id string, filters models.TechFilters) (*Session, error) {
	return c.sessionCall(ctx, "PUT", "/api/v1/sessions/"+id+"/filters", filters)
}

// ApplyFilters commits the filter draft
func (c *Client) ApplyFilters(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/filters/apply", nil)
}

// ResetFilters clears the filter draft and the effective filters
func (c *Client) ResetFilters(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/filters/reset", nil)
}

// Scoped catalog views

// SessionFamilies lists the families visible under the session scope
func (c *Client) SessionFamilies(ctx context.Context, id string) ([]models.Family, error) {
	var out struct {
		Families []models.Family `json:"families"`
		Total    int             `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/sessions/"+id+"/families", nil, &out); err != nil {
		return nil, err
	}
	return out.Families, nil
}

// SessionRobots lists the robots visible under the session scope
func (c *Client) SessionRobots(ctx context.Context, id string) ([]models.Robot, error) {
	var out struct {
		Robots []models.Robot `json:"robots"`
		Total  int            `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/sessions/"+id+"/robots", nil, &out); err != nil {
		return nil, err
	}
	return out.Robots, nil
}

// SessionRanges returns the derived slider ranges for the session scope
func (c *Client) SessionRanges(ctx context.Context, id string) (*models.Ranges, error) {
	var out struct {
		Ranges        models.Ranges `json:"ranges"`
		ActiveFilters int           `json:"active_filters"`
	}
	if err := c.call(ctx, "GET", "/api/v1/sessions/"+id+"/ranges", nil, &out); err != nil {
		return nil, err
	}
	return &out.Ranges, nil
}

// Cart

// Confirm commits the in-progress configuration to the cart
func (c *Client) Confirm(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/confirm", nil)
}

// RemoveCartItem removes a configuration by position. robotID guards
// against removing a shifted item.
func (c *Client) RemoveCartItem(ctx context.Context, id string, index int, robotID string) (*Session, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/cart/%d?robot=%s", id, index, url.QueryEscape(robotID))
	return c.sessionCall(ctx, "DELETE", path, nil)
}

// ClearCart empties the cart
func (c *Client) ClearCart(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "DELETE", "/api/v1/sessions/"+id+"/cart", nil)
}

// Submit sends the cart as a contact request
func (c *Client) Submit(ctx context.Context, id string, form models.ContactForm) error {
	var out json.RawMessage
	return c.call(ctx, "POST", "/api/v1/sessions/"+id+"/submit", form, &out)
}

// Navigation

// Back moves one step back in the wizard
func (c *Client) Back(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/back", nil)
}

// Reset returns the session to the MODE step, keeping the language
func (c *Client) Reset(ctx context.Context, id string) (*Session, error) {
	return c.sessionCall(ctx, "POST", "/api/v1/sessions/"+id+"/reset", nil)
}

// SetStep writes the step indicator directly
func (c *Client) SetStep(ctx context.Context, id string, step models.Step) (*Session, error) {
	return c.sessionCall(ctx, "PUT", "/api/v1/sessions/"+id+"/step", map[string]models.Step{"step": step})
}

// Catalog

// Industries lists the catalog industries
func (c *Client) Industries(ctx context.Context, locale string) ([]models.Industry, error) {
	var out struct {
		Industries []models.Industry `json:"industries"`
		Total      int               `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/catalog/industries"+localeQuery(locale), nil, &out); err != nil {
		return nil, err
	}
	return out.Industries, nil
}

// Controllers lists the catalog controllers
func (c *Client) Controllers(ctx context.Context, locale string) ([]models.Controller, error) {
	var out struct {
		Controllers []models.Controller `json:"controllers"`
		Total       int                 `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/catalog/controllers"+localeQuery(locale), nil, &out); err != nil {
		return nil, err
	}
	return out.Controllers, nil
}

// RobotAccessories returns a robot's accessory links and exclusions
func (c *Client) RobotAccessories(ctx context.Context, robotID, locale string) (*AccessorySet, error) {
	var out AccessorySet
	if err := c.call(ctx, "GET", "/api/v1/catalog/robots/"+robotID+"/accessories"+localeQuery(locale), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

func localeQuery(locale string) string {
	if locale == "" {
		return ""
	}
	return "?locale=" + url.QueryEscape(locale)
}

// sessionCall performs a request whose data payload is the session view
func (c *Client) sessionCall(ctx context.Context, method, path string, reqBody interface{}) (*Session, error) {
	var sess Session
	if err := c.call(ctx, method, path, reqBody, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// call performs a request and unwraps the response envelope into dest
func (c *Client) call(ctx context.Context, method, path string, reqBody, dest interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *apiErrorBody   `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error == nil {
			return fmt.Errorf("API error: request failed")
		}
		return &APIError{
			Code:    result.Error.Code,
			Message: result.Error.Message,
			Field:   result.Error.Field,
		}
	}

	if dest != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, dest); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
