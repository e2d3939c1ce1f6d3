package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/smartconfig/configurator-engine/internal/models"
)

// Wire representations of backend documents. Media arrives as an object
// whose url may be backend-relative.

type wireMedia struct {
	URL string `json:"url"`
}

type wireIndustry struct {
	DocumentID  string     `json:"documentId"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Image       *wireMedia `json:"image"`
}

type wireFamily struct {
	DocumentID  string         `json:"documentId"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Image       *wireMedia     `json:"image"`
	Industries  []wireIndustry `json:"industries"`
}

type wireController struct {
	DocumentID  string     `json:"documentId"`
	Name        string     `json:"name"`
	Generation  string     `json:"generation"`
	MaxAxes     int        `json:"max_supported_axes"`
	ListPrice   float64    `json:"list_price,string"`
	Description string     `json:"description"`
	Image       *wireMedia `json:"image"`
}

type wireRobot struct {
	DocumentID    string          `json:"documentId"`
	Model         string          `json:"model"`
	ModelCode     string          `json:"model_code"`
	Axes          int             `json:"axes"`
	MaxPayloadKg  float64         `json:"max_payload_kg"`
	MaxReachMm    int             `json:"max_reach_mm"`
	ListPrice     float64         `json:"list_price"`
	Collaborative bool            `json:"collaborative"`
	Protection    string          `json:"protection"`
	Description   string          `json:"description"`
	Image         *wireMedia      `json:"image"`
	Family        *wireFamily     `json:"family"`
	Controller    *wireController `json:"controller"`
	Industries    []wireIndustry  `json:"industries"`
}

type wireCategory struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
}

type wireAccessory struct {
	DocumentID  string         `json:"documentId"`
	ShortName   string         `json:"short_name"`
	ListPrice   float64        `json:"list_price"`
	Description string         `json:"description"`
	Image       *wireMedia     `json:"image"`
	Categories  []wireCategory `json:"accessory_categories"`
}

type wireAccessoryLink struct {
	DocumentID  string         `json:"documentId"`
	Accessory   *wireAccessory `json:"accessory"`
	Mandatory   bool           `json:"mandatory"`
	MinQuantity int            `json:"min_quantity"`
	MaxQuantity int            `json:"max_quantity"`
	Notes       string         `json:"notes"`
}

type wireExclusion struct {
	DocumentID string         `json:"documentId"`
	AccessoryA *wireAccessory `json:"accessory_a"`
	AccessoryB *wireAccessory `json:"accessory_b"`
	Reason     string         `json:"reason"`
}

// --- wire → model mapping ---

func (c *Client) mediaURL(m *wireMedia) string {
	if m == nil {
		return ""
	}
	return c.absoluteMediaURL(m.URL)
}

func (c *Client) toIndustry(w wireIndustry) models.Industry {
	return models.Industry{
		DocumentID:  w.DocumentID,
		Name:        w.Name,
		Slug:        w.Slug,
		Description: w.Description,
		ImageURL:    c.mediaURL(w.Image),
	}
}

func (c *Client) toFamily(w wireFamily) models.Family {
	f := models.Family{
		DocumentID:  w.DocumentID,
		Name:        w.Name,
		Slug:        w.Slug,
		Description: w.Description,
		ImageURL:    c.mediaURL(w.Image),
	}
	for _, ind := range w.Industries {
		f.Industries = append(f.Industries, c.toIndustry(ind))
	}
	return f
}

func (c *Client) toController(w *wireController) *models.Controller {
	if w == nil {
		return nil
	}
	return &models.Controller{
		DocumentID:  w.DocumentID,
		Name:        w.Name,
		Generation:  w.Generation,
		MaxAxes:     w.MaxAxes,
		ListPrice:   w.ListPrice,
		Description: w.Description,
		ImageURL:    c.mediaURL(w.Image),
	}
}

func (c *Client) toRobot(w wireRobot) models.Robot {
	r := models.Robot{
		DocumentID:    w.DocumentID,
		Model:         w.Model,
		ModelCode:     w.ModelCode,
		Axes:          w.Axes,
		MaxPayloadKg:  w.MaxPayloadKg,
		MaxReachMm:    w.MaxReachMm,
		ListPrice:     w.ListPrice,
		Collaborative: w.Collaborative,
		Protection:    w.Protection,
		Description:   w.Description,
		ImageURL:      c.mediaURL(w.Image),
		Controller:    c.toController(w.Controller),
	}
	if w.Family != nil {
		fam := c.toFamily(*w.Family)
		r.Family = &fam
	}
	for _, ind := range w.Industries {
		r.Industries = append(r.Industries, c.toIndustry(ind))
	}
	return r
}

func (c *Client) toAccessory(w *wireAccessory) *models.Accessory {
	if w == nil {
		return nil
	}
	a := &models.Accessory{
		DocumentID:  w.DocumentID,
		ShortName:   w.ShortName,
		ListPrice:   w.ListPrice,
		Description: w.Description,
		ImageURL:    c.mediaURL(w.Image),
	}
	for _, cat := range w.Categories {
		a.Categories = append(a.Categories, models.AccessoryCategory{
			DocumentID: cat.DocumentID,
			Name:       cat.Name,
			Slug:       cat.Slug,
		})
	}
	return a
}

// --- Source implementation ---

// Industries fetches all published industries for the locale
func (c *Client) Industries(ctx context.Context, locale string) ([]models.Industry, error) {
	body, err := c.doGet(ctx, "/industries", baseQuery(locale))
	if err != nil {
		return nil, fmt.Errorf("failed to list industries: %w", err)
	}

	var env listEnvelope[wireIndustry]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode industries: %w", err)
	}

	result := make([]models.Industry, 0, len(env.Data))
	for _, w := range env.Data {
		result = append(result, c.toIndustry(w))
	}
	return result, nil
}

// Families fetches families, optionally narrowed by industry and by
// robot-level technical predicates
func (c *Client) Families(ctx context.Context, locale string, q FamilyQuery) ([]models.Family, error) {
	query := baseQuery(locale)
	if q.IndustryID != "" {
		query.Set("filters[robots][industries][documentId][$eq]", q.IndustryID)
	}
	if q.Filters != nil {
		robotPredicates(query, "[robots]", RobotQuery{Filters: q.Filters})
	}

	body, err := c.doGet(ctx, "/families", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}

	var env listEnvelope[wireFamily]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode families: %w", err)
	}

	result := make([]models.Family, 0, len(env.Data))
	for _, w := range env.Data {
		result = append(result, c.toFamily(w))
	}
	return result, nil
}

// Robots fetches the robot population matching the query
func (c *Client) Robots(ctx context.Context, locale string, q RobotQuery) ([]models.Robot, error) {
	query := baseQuery(locale)
	robotPredicates(query, "", q)

	body, err := c.doGet(ctx, "/robots", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}

	var env listEnvelope[wireRobot]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode robots: %w", err)
	}

	result := make([]models.Robot, 0, len(env.Data))
	for _, w := range env.Data {
		result = append(result, c.toRobot(w))
	}
	return result, nil
}

// RobotByID fetches a single robot by its document id
func (c *Client) RobotByID(ctx context.Context, locale, documentID string) (*models.Robot, error) {
	body, err := c.doGet(ctx, "/robots/"+url.PathEscape(documentID), baseQuery(locale))
	if err != nil {
		return nil, fmt.Errorf("failed to get robot %s: %w", documentID, err)
	}

	var env singleEnvelope[wireRobot]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode robot: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("robot %s: %w", documentID, ErrNotFound)
	}

	r := c.toRobot(*env.Data)
	return &r, nil
}

// Controllers fetches all published controllers
func (c *Client) Controllers(ctx context.Context, locale string) ([]models.Controller, error) {
	body, err := c.doGet(ctx, "/controllers", baseQuery(locale))
	if err != nil {
		return nil, fmt.Errorf("failed to list controllers: %w", err)
	}

	var env listEnvelope[wireController]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode controllers: %w", err)
	}

	result := make([]models.Controller, 0, len(env.Data))
	for _, w := range env.Data {
		ctrl := c.toController(&w)
		result = append(result, *ctrl)
	}
	return result, nil
}

// AccessoryLinks fetches the accessory links of one robot, with the
// accessory relation fully populated
func (c *Client) AccessoryLinks(ctx context.Context, locale, robotDocumentID string) ([]models.AccessoryLink, error) {
	query := baseQuery(locale)
	query.Set("filters[robot][documentId][$eq]", robotDocumentID)
	query.Set("populate[accessory][populate]", "*")

	body, err := c.doGet(ctx, "/robot-accessory-links", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessory links: %w", err)
	}

	var env listEnvelope[wireAccessoryLink]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode accessory links: %w", err)
	}

	result := make([]models.AccessoryLink, 0, len(env.Data))
	for _, w := range env.Data {
		result = append(result, models.AccessoryLink{
			DocumentID:  w.DocumentID,
			Accessory:   c.toAccessory(w.Accessory),
			Mandatory:   w.Mandatory,
			MinQuantity: w.MinQuantity,
			MaxQuantity: w.MaxQuantity,
			Notes:       w.Notes,
		})
	}
	return result, nil
}

// Exclusions fetches the global exclusion-rule set
func (c *Client) Exclusions(ctx context.Context, locale string) ([]models.AccessoryExclusion, error) {
	query := baseQuery(locale)
	query.Set("populate[accessory_a][populate]", "*")
	query.Set("populate[accessory_b][populate]", "*")

	body, err := c.doGet(ctx, "/accessory-exclusions", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusions: %w", err)
	}

	var env listEnvelope[wireExclusion]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode exclusions: %w", err)
	}

	result := make([]models.AccessoryExclusion, 0, len(env.Data))
	for _, w := range env.Data {
		result = append(result, models.AccessoryExclusion{
			DocumentID: w.DocumentID,
			AccessoryA: c.toAccessory(w.AccessoryA),
			AccessoryB: c.toAccessory(w.AccessoryB),
			Reason:     w.Reason,
		})
	}
	return result, nil
}

// CreateContactRequest posts the serialized cart plus contact fields to the
// write-only contact-request endpoint
func (c *Client) CreateContactRequest(ctx context.Context, req models.ContactRequest) error {
	payload, err := json.Marshal(map[string]models.ContactRequest{"data": req})
	if err != nil {
		return fmt.Errorf("failed to marshal contact request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/contact-request", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("contact request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if err := checkStatus(resp.StatusCode, "/contact-request"); err != nil {
		return err
	}
	return nil
}
