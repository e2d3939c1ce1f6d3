package models

import "time"

// Step identifies a wizard step
type Step string

const (
	StepMode          Step = "MODE"
	StepIndustry      Step = "INDUSTRY"
	StepTechFilters   Step = "TECH_FILTERS"
	StepFamilies      Step = "FAMILIES"
	StepRobots        Step = "ROBOTS"
	StepConfiguration Step = "CONFIGURATION" // reserved; configuration happens inline over ROBOTS
	StepSummary       Step = "SUMMARY"
)

// EntryMode records how the user entered the flow from MODE
type EntryMode string

const (
	EntryByIndustry   EntryMode = "industry"
	EntryByParameters EntryMode = "parameters"
)

// SelectedAccessory wraps an accessory chosen for the current robot.
// Mandatory is copied from the link at selection time; Quantity is
// user-adjustable within the link's min/max.
type SelectedAccessory struct {
	Accessory Accessory `json:"accessory"`
	Mandatory bool      `json:"mandatory"`
	Quantity  int       `json:"quantity"`
}

// SummaryItem is one finalized robot configuration held in the cart
type SummaryItem struct {
	Robot       Robot               `json:"robot"`
	Controller  *Controller         `json:"controller,omitempty"`
	Accessories []SelectedAccessory `json:"accessories"`
}

// Price returns the item's contribution to the cart total.
// Missing prices count as zero.
func (it SummaryItem) Price() float64 {
	total := it.Robot.ListPrice
	if it.Controller != nil {
		total += it.Controller.ListPrice
	}
	for _, acc := range it.Accessories {
		total += acc.Accessory.ListPrice * float64(acc.Quantity)
	}
	return total
}

// FilterState bundles the filter draft, the effective (applied) filters and
// the ranges they are reconciled against. RangeGen is a generation counter
// bumped on every industry-scope change so a superseded range derivation is
// discarded instead of overwriting a newer one.
type FilterState struct {
	Draft    TechFilters `json:"draft"`
	Applied  TechFilters `json:"applied"`
	Ranges   Ranges      `json:"ranges"`
	RangeGen int         `json:"range_gen"`
}

// Selection holds the in-progress robot configuration
type Selection struct {
	Industry    *Industry           `json:"industry,omitempty"`
	Family      *Family             `json:"family,omitempty"`
	Robot       *Robot              `json:"robot,omitempty"`
	Controller  *Controller         `json:"controller,omitempty"`
	Accessories []SelectedAccessory `json:"accessories,omitempty"`
}

// Session is one configurator run: wizard position, filters, the
// in-progress selection and the accumulated cart.
type Session struct {
	ID                    string        `json:"id"`
	Language              string        `json:"language"`
	EntryMode             EntryMode     `json:"entry_mode,omitempty"`
	CurrentStep           Step          `json:"current_step"`
	PreviousStep          Step          `json:"previous_step,omitempty"`
	LastStepBeforeSummary Step          `json:"last_step_before_summary,omitempty"`
	Filters               FilterState   `json:"filters"`
	Selection             Selection     `json:"selection"`
	Cart                  []SummaryItem `json:"cart"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
	ExpiresAt             time.Time     `json:"expires_at"`
}

// IsExpired checks if the session TTL has elapsed
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// CartTotal sums the price of every cart item
func (s *Session) CartTotal() float64 {
	var total float64
	for _, it := range s.Cart {
		total += it.Price()
	}
	return total
}

// ContactForm carries the fields the user fills before submitting the cart
type ContactForm struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ContactRequest is the creation payload sent to the backend's
// contact-request endpoint
type ContactRequest struct {
	Name                string        `json:"name"`
	Company             string        `json:"company"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone,omitempty"`
	Comment             string        `json:"comment,omitempty"`
	RobotConfigurations []SummaryItem `json:"robot_configurations"`
	TotalPrice          float64       `json:"total_price,omitempty"`
	Status              string        `json:"status"`
}
