package models

// Industry represents a top-level industry segment robots are marketed for
// (e.g., automotive, food & beverage)
type Industry struct {
	DocumentID  string `json:"document_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Family represents a design line grouping robot models
type Family struct {
	DocumentID  string     `json:"document_id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug,omitempty"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Industries  []Industry `json:"industries,omitempty"`
}

// Controller is the control unit paired with a robot, independently selectable
type Controller struct {
	DocumentID  string  `json:"document_id"`
	Name        string  `json:"name"`
	Generation  string  `json:"generation,omitempty"`
	MaxAxes     int     `json:"max_axes,omitempty"`
	ListPrice   float64 `json:"list_price,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Robot represents a single robot model in the catalog
type Robot struct {
	DocumentID    string      `json:"document_id"`
	Model         string      `json:"model"`
	ModelCode     string      `json:"model_code,omitempty"`
	Axes          int         `json:"axes"`
	MaxPayloadKg  float64     `json:"max_payload_kg"`
	MaxReachMm    int         `json:"max_reach_mm"`
	ListPrice     float64     `json:"list_price,omitempty"`
	Collaborative bool        `json:"collaborative"`
	Protection    string      `json:"protection,omitempty"` // IP rating, e.g. "IP67"
	Description   string      `json:"description,omitempty"`
	ImageURL      string      `json:"image_url,omitempty"`
	Family        *Family     `json:"family,omitempty"`
	Controller    *Controller `json:"controller,omitempty"` // default controller
	Industries    []Industry  `json:"industries,omitempty"`
}

// AccessoryCategory groups accessories (grippers, vision, safety, ...)
type AccessoryCategory struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug,omitempty"`
}

// Accessory is a catalog accessory attachable to robots via AccessoryLink
type Accessory struct {
	DocumentID  string              `json:"document_id"`
	ShortName   string              `json:"short_name"`
	ListPrice   float64             `json:"list_price,omitempty"`
	Description string              `json:"description,omitempty"`
	ImageURL    string              `json:"image_url,omitempty"`
	Categories  []AccessoryCategory `json:"categories,omitempty"`
}

// AccessoryLink associates a robot with an accessory and carries the
// mandatory/optional and quantity-range metadata.
// Invariant: MinQuantity <= MaxQuantity, both >= 1.
type AccessoryLink struct {
	DocumentID  string     `json:"document_id"`
	Accessory   *Accessory `json:"accessory"`
	Mandatory   bool       `json:"mandatory"`
	MinQuantity int        `json:"min_quantity"`
	MaxQuantity int        `json:"max_quantity"`
	Notes       string     `json:"notes,omitempty"`
}

// AccessoryExclusion declares two accessories incompatible. The pair is
// unordered: excluding (A,B) also excludes (B,A).
type AccessoryExclusion struct {
	DocumentID string     `json:"document_id"`
	AccessoryA *Accessory `json:"accessory_a"`
	AccessoryB *Accessory `json:"accessory_b"`
	Reason     string     `json:"reason,omitempty"`
}

// Matches reports whether the exclusion binds the two given accessories,
// in either order.
func (e *AccessoryExclusion) Matches(aID, bID string) bool {
	if e.AccessoryA == nil || e.AccessoryB == nil {
		return false
	}
	return (e.AccessoryA.DocumentID == aID && e.AccessoryB.DocumentID == bID) ||
		(e.AccessoryB.DocumentID == aID && e.AccessoryA.DocumentID == bID)
}

// TechFilters holds the optional technical-filter bounds applied to the
// robot population. Nil fields mean "no constraint".
type TechFilters struct {
	PayloadMin    *float64 `json:"payload_min,omitempty"`
	PayloadMax    *float64 `json:"payload_max,omitempty"`
	ReachMin      *int     `json:"reach_min,omitempty"`
	ReachMax      *int     `json:"reach_max,omitempty"`
	Axes          *int     `json:"axes,omitempty"`
	Collaborative *bool    `json:"collaborative,omitempty"`
	Protection    string   `json:"protection,omitempty"`
	IndustryID    string   `json:"industry_id,omitempty"` // industry document id scoping the population
}

// IsZero reports whether no constraint is set
func (f TechFilters) IsZero() bool {
	return f.PayloadMin == nil && f.PayloadMax == nil &&
		f.ReachMin == nil && f.ReachMax == nil &&
		f.Axes == nil && f.Collaborative == nil &&
		f.Protection == "" && f.IndustryID == ""
}

// Ranges holds the filter bounds derived from the visible robot population
type Ranges struct {
	PayloadMin  float64  `json:"payload_min"`
	PayloadMax  float64  `json:"payload_max"`
	ReachMin    int      `json:"reach_min"`
	ReachMax    int      `json:"reach_max"`
	Protections []string `json:"protections,omitempty"`
}

// DefaultRanges is the placeholder used when the population is empty
func DefaultRanges() Ranges {
	return Ranges{
		PayloadMin: 0,
		PayloadMax: 100,
		ReachMin:   0,
		ReachMax:   5000,
	}
}

// HasProtection reports whether the rating is in the derived set
func (r Ranges) HasProtection(rating string) bool {
	for _, p := range r.Protections {
		if p == rating {
			return true
		}
	}
	return false
}
