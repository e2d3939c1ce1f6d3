// Package session orchestrates one configurator run: wizard position,
// filter reconciliation, robot configuration and the cart, persisted per
// session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartconfig/configurator-engine/internal/cart"
	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/filters"
	"github.com/smartconfig/configurator-engine/internal/models"
	"github.com/smartconfig/configurator-engine/internal/ranges"
	"github.com/smartconfig/configurator-engine/internal/resolver"
	"github.com/smartconfig/configurator-engine/internal/storage"
	"github.com/smartconfig/configurator-engine/internal/wizard"
)

var (
	// ErrSessionNotFound covers missing and expired sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidMode rejects an unknown entry mode
	ErrInvalidMode = errors.New("invalid entry mode")
	// ErrInvalidStep rejects an unknown wizard step
	ErrInvalidStep = errors.New("invalid step")
	// ErrNoRobotSelected blocks configuration operations without a robot
	ErrNoRobotSelected = errors.New("no robot selected")
	// ErrAtInitialStep is returned for back-navigation from MODE
	ErrAtInitialStep = errors.New("already at initial step")
)

const defaultLanguage = "es"

// Notifier receives session change events (the WebSocket step stream)
type Notifier interface {
	Publish(sessionID string, event Event)
}

// Event describes a session change pushed to stream subscribers
type Event struct {
	Type      string      `json:"type"`
	Step      models.Step `json:"step"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Manager owns session lifecycle and applies every workflow action
type Manager struct {
	repo     storage.Repository
	src      catalog.Source
	deriver  *ranges.Deriver
	notifier Notifier // optional
	ttl      time.Duration
}

// NewManager creates a session manager
func NewManager(repo storage.Repository, src catalog.Source, deriver *ranges.Deriver, notifier Notifier, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		repo:     repo,
		src:      src,
		deriver:  deriver,
		notifier: notifier,
		ttl:      ttl,
	}
}

// Create starts a new configurator session at MODE
func (m *Manager) Create(ctx context.Context, language string) (*models.Session, error) {
	if language == "" {
		language = defaultLanguage
	}

	now := time.Now().UTC()
	s := &models.Session{
		ID:          uuid.NewString(),
		Language:    language,
		CurrentStep: models.StepMode,
		Filters: models.FilterState{
			Ranges: models.DefaultRanges(),
		},
		Cart:      []models.SummaryItem{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.repo.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Initial ranges over the full population; a failure keeps the
	// placeholder defaults and must not fail session creation
	if updated, err := m.deriveRanges(ctx, s.ID); err != nil {
		slog.Warn("initial range derivation failed", "session", s.ID, "error", err)
	} else if updated != nil {
		s = updated
	}

	return s, nil
}

// Get returns the session or ErrSessionNotFound
func (m *Manager) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.load(ctx, id)
}

// Delete drops the session
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.load(ctx, id); err != nil {
		return err
	}
	return m.repo.DeleteSession(ctx, id)
}

// SetMode records the entry mode and advances to its branch step
func (m *Manager) SetMode(ctx context.Context, id string, mode models.EntryMode) (*models.Session, error) {
	if mode != models.EntryByIndustry && mode != models.EntryByParameters {
		return nil, ErrInvalidMode
	}
	return m.mutate(ctx, id, func(s *models.Session) error {
		s.EntryMode = mode
		stepTo(s, wizard.EntryStep(mode))
		return nil
	})
}

// SetLanguage switches the session locale. Technical filters are cleared,
// matching the filter lifecycle, and ranges are re-derived for the new
// locale.
func (m *Manager) SetLanguage(ctx context.Context, id, language string) (*models.Session, error) {
	if language == "" {
		language = defaultLanguage
	}
	s, err := m.mutate(ctx, id, func(s *models.Session) error {
		s.Language = language
		s.Filters.Draft = models.TechFilters{}
		s.Filters.Applied = models.TechFilters{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.rangesOrCurrent(ctx, s)
}

// SelectIndustry records the industry choice, scopes the filter ranges to
// it and advances to FAMILIES
func (m *Manager) SelectIndustry(ctx context.Context, id, industryDocumentID string) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	industries, err := m.src.Industries(ctx, s.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load industries: %w", err)
	}

	var selected *models.Industry
	for i := range industries {
		if industries[i].DocumentID == industryDocumentID {
			selected = &industries[i]
			break
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("industry %s: %w", industryDocumentID, catalog.ErrNotFound)
	}

	s, err = m.mutate(ctx, id, func(s *models.Session) error {
		s.Selection.Industry = selected
		s.Filters.Draft.IndustryID = selected.DocumentID
		s.Filters.Applied.IndustryID = selected.DocumentID
		stepTo(s, models.StepFamilies)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.rangesOrCurrent(ctx, s)
}

// SelectFamily records the family choice and advances to ROBOTS
func (m *Manager) SelectFamily(ctx context.Context, id, familyDocumentID string) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	families, err := m.src.Families(ctx, s.Language, catalog.FamilyQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to load families: %w", err)
	}

	var selected *models.Family
	for i := range families {
		if families[i].DocumentID == familyDocumentID {
			selected = &families[i]
			break
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("family %s: %w", familyDocumentID, catalog.ErrNotFound)
	}

	return m.mutate(ctx, id, func(s *models.Session) error {
		s.Selection.Family = selected
		stepTo(s, models.StepRobots)
		return nil
	})
}

// SelectRobot loads the robot's configuration data (controllers, accessory
// links and exclusions, fetched concurrently as a unit) and initializes the
// selection: default controller plus auto-added mandatory accessories. Any
// fetch error leaves the previous selection untouched; re-selecting the
// robot retries.
func (m *Manager) SelectRobot(ctx context.Context, id, robotDocumentID string) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	robot, err := m.src.RobotByID(ctx, s.Language, robotDocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load robot: %w", err)
	}

	load, err := resolver.Fetch(ctx, m.src, s.Language, robotDocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load robot configuration: %w", err)
	}

	return m.mutate(ctx, id, func(s *models.Session) error {
		sameRobot := s.Selection.Robot != nil && s.Selection.Robot.DocumentID == robotDocumentID
		if !sameRobot {
			s.Selection.Accessories = nil
		}
		s.Selection.Robot = robot
		s.Selection.Controller = resolver.DefaultController(robot, load.Controllers)
		s.Selection.Accessories = resolver.ApplyMandatory(s.Selection.Accessories, load.Links)
		return nil
	})
}

// ClearRobot drops the in-progress robot configuration
func (m *Manager) ClearRobot(ctx context.Context, id string) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		s.Selection.Robot = nil
		s.Selection.Controller = nil
		s.Selection.Accessories = nil
		return nil
	})
}

// SelectController overrides the default controller choice
func (m *Manager) SelectController(ctx context.Context, id, controllerDocumentID string) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Selection.Robot == nil {
		return nil, ErrNoRobotSelected
	}

	controllers, err := m.src.Controllers(ctx, s.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}

	var selected *models.Controller
	for i := range controllers {
		if controllers[i].DocumentID == controllerDocumentID {
			selected = &controllers[i]
			break
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("controller %s: %w", controllerDocumentID, catalog.ErrNotFound)
	}

	return m.mutate(ctx, id, func(s *models.Session) error {
		s.Selection.Controller = selected
		return nil
	})
}

// ToggleAccessory flips an optional accessory of the selected robot.
// Mandatory and excluded accessories are left untouched (no-op, not an
// error).
func (m *Manager) ToggleAccessory(ctx context.Context, id, accessoryDocumentID string) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Selection.Robot == nil {
		return nil, ErrNoRobotSelected
	}

	load, err := resolver.Fetch(ctx, m.src, s.Language, s.Selection.Robot.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load robot configuration: %w", err)
	}

	link := load.LinkFor(accessoryDocumentID)
	if link == nil {
		return nil, fmt.Errorf("accessory %s: %w", accessoryDocumentID, catalog.ErrNotFound)
	}

	return m.mutate(ctx, id, func(s *models.Session) error {
		selected, changed := resolver.Toggle(s.Selection.Accessories, *link, load.Exclusions)
		if changed {
			s.Selection.Accessories = selected
		}
		return nil
	})
}

// SetAccessoryQuantity updates the quantity of an already-selected
// accessory. The value is stored as given; the UI clamps to the link's
// min/max.
func (m *Manager) SetAccessoryQuantity(ctx context.Context, id, accessoryDocumentID string, quantity int) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		if s.Selection.Robot == nil {
			return ErrNoRobotSelected
		}
		selected, changed := resolver.SetQuantity(s.Selection.Accessories, accessoryDocumentID, quantity)
		if changed {
			s.Selection.Accessories = selected
		}
		return nil
	})
}

// UpdateFilters replaces the filter draft, reconciled against the current
// ranges. An industry-scope change triggers a range re-derivation.
func (m *Manager) UpdateFilters(ctx context.Context, id string, draft models.TechFilters) (*models.Session, error) {
	var industryChanged bool
	s, err := m.mutate(ctx, id, func(s *models.Session) error {
		industryChanged = draft.IndustryID != s.Filters.Draft.IndustryID
		reconciled, _ := filters.Reconcile(draft, s.Filters.Ranges)
		s.Filters.Draft = reconciled
		return nil
	})
	if err != nil {
		return nil, err
	}
	if industryChanged {
		return m.rangesOrCurrent(ctx, s)
	}
	return s, nil
}

// ApplyFilters commits the draft as the effective filter; from
// TECH_FILTERS this advances to FAMILIES
func (m *Manager) ApplyFilters(ctx context.Context, id string) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		s.Filters.Applied = s.Filters.Draft
		if s.CurrentStep == models.StepTechFilters {
			stepTo(s, models.StepFamilies)
		}
		return nil
	})
}

// ResetFilters clears the draft, the effective filter and the bound
// industry selection, then re-derives the unscoped ranges
func (m *Manager) ResetFilters(ctx context.Context, id string) (*models.Session, error) {
	s, err := m.mutate(ctx, id, func(s *models.Session) error {
		s.Filters.Draft = models.TechFilters{}
		s.Filters.Applied = models.TechFilters{}
		s.Selection.Industry = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.rangesOrCurrent(ctx, s)
}

// ActiveFilterCount reports how many constraints narrow the population
func (m *Manager) ActiveFilterCount(ctx context.Context, id string) (int, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return 0, err
	}
	return filters.ActiveCount(s.Filters.Draft, s.Filters.Ranges), nil
}

// Confirm commits the in-progress configuration to the cart and jumps to
// SUMMARY, remembering the step the user left for back-navigation
func (m *Manager) Confirm(ctx context.Context, id string) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		if s.Selection.Robot == nil {
			return ErrNoRobotSelected
		}

		item := models.SummaryItem{
			Robot:       *s.Selection.Robot,
			Controller:  s.Selection.Controller,
			Accessories: s.Selection.Accessories,
		}
		if item.Accessories == nil {
			item.Accessories = []models.SelectedAccessory{}
		}
		s.Cart = cart.Add(s.Cart, item)

		// Confirming again from SUMMARY must not overwrite the remembered
		// step, or back-navigation would loop on SUMMARY
		if s.CurrentStep != models.StepSummary {
			s.LastStepBeforeSummary = s.CurrentStep
		}
		stepTo(s, models.StepSummary)

		s.Selection.Robot = nil
		s.Selection.Controller = nil
		s.Selection.Accessories = nil
		return nil
	})
}

// RemoveCartItem deletes a configuration by position. robotDocumentID is
// the confirm guard echoed by the UI.
func (m *Manager) RemoveCartItem(ctx context.Context, id string, index int, robotDocumentID string) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		items, err := cart.Remove(s.Cart, index, robotDocumentID)
		if err != nil {
			return err
		}
		s.Cart = items
		return nil
	})
}

// ClearCart empties the cart
func (m *Manager) ClearCart(ctx context.Context, id string) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		s.Cart = []models.SummaryItem{}
		return nil
	})
}

// Submit validates the contact form and sends the cart as a contact
// request. The cart is left intact on success so the user can print or
// resend.
func (m *Manager) Submit(ctx context.Context, id string, form models.ContactForm) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	req, err := cart.BuildContactRequest(form, s.Cart)
	if err != nil {
		return nil, err
	}

	if err := m.src.CreateContactRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to send contact request: %w", err)
	}

	slog.Info("contact request submitted",
		"session", s.ID,
		"company", form.Company,
		"configurations", len(s.Cart),
		"total_price", req.TotalPrice,
	)

	return s, nil
}

// Back resolves the table-driven back step and moves there
func (m *Manager) Back(ctx context.Context, id string) (*models.Session, error) {
	return m.mutate(ctx, id, func(s *models.Session) error {
		target, ok := wizard.BackStep(s.CurrentStep, wizard.Context{
			EntryMode:             s.EntryMode,
			LastStepBeforeSummary: s.LastStepBeforeSummary,
		})
		if !ok {
			return ErrAtInitialStep
		}
		stepTo(s, target)
		return nil
	})
}

// Reset returns the session to MODE and clears all selection state except
// the language preference
func (m *Manager) Reset(ctx context.Context, id string) (*models.Session, error) {
	s, err := m.mutate(ctx, id, func(s *models.Session) error {
		s.EntryMode = ""
		s.CurrentStep = models.StepMode
		s.PreviousStep = ""
		s.LastStepBeforeSummary = ""
		s.Filters = models.FilterState{
			Ranges:   models.DefaultRanges(),
			RangeGen: s.Filters.RangeGen,
		}
		s.Selection = models.Selection{}
		s.Cart = []models.SummaryItem{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.rangesOrCurrent(ctx, s)
}

// SetStep applies an external step-indicator write (shareable location).
// Last writer wins; the machine does not merge.
func (m *Manager) SetStep(ctx context.Context, id string, step models.Step) (*models.Session, error) {
	if !wizard.Valid(step) {
		return nil, ErrInvalidStep
	}
	return m.mutate(ctx, id, func(s *models.Session) error {
		stepTo(s, step)
		return nil
	})
}

// Robots lists the robot population visible to the session: family scope,
// industry scope and the applied technical filters combined
func (m *Manager) Robots(ctx context.Context, id string) ([]models.Robot, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	q := catalog.RobotQuery{}
	if s.Selection.Family != nil {
		q.FamilyID = s.Selection.Family.DocumentID
	}
	applied := s.Filters.Applied
	if applied.IndustryID != "" {
		q.IndustryID = applied.IndustryID
	} else if s.Selection.Industry != nil {
		q.IndustryID = s.Selection.Industry.DocumentID
	}
	if !applied.IsZero() {
		q.Filters = &applied
	}

	return m.src.Robots(ctx, s.Language, q)
}

// Families lists the families visible to the session scope
func (m *Manager) Families(ctx context.Context, id string) ([]models.Family, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	q := catalog.FamilyQuery{}
	applied := s.Filters.Applied
	if applied.IndustryID != "" {
		q.IndustryID = applied.IndustryID
	} else if s.Selection.Industry != nil {
		q.IndustryID = s.Selection.Industry.DocumentID
	}
	if !applied.IsZero() {
		q.Filters = &applied
	}

	return m.src.Families(ctx, s.Language, q)
}

// --- internals ---

func (m *Manager) load(ctx context.Context, id string) (*models.Session, error) {
	s, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) mutate(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	prevStep := s.CurrentStep

	if err := fn(s); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(m.ttl)

	if err := m.repo.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if m.notifier != nil {
		eventType := "state_changed"
		if s.CurrentStep != prevStep {
			eventType = "step_changed"
		}
		m.notifier.Publish(s.ID, Event{
			Type:      eventType,
			Step:      s.CurrentStep,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return s, nil
}

// stepTo moves the wizard, keeping the previous step for simple
// back-navigation within a branch
func stepTo(s *models.Session, step models.Step) {
	if s.CurrentStep == step {
		return
	}
	s.PreviousStep = s.CurrentStep
	s.CurrentStep = step
}

// industryScope is the industry the filter ranges should cover: the draft
// being edited, the applied filter, or the explicit industry selection, in
// that order. The applied-to-selection fallback matches the one Robots and
// Families use, so once the draft is cleared or committed the slider bounds
// describe the population those lists serve.
func industryScope(s *models.Session) string {
	if s.Filters.Draft.IndustryID != "" {
		return s.Filters.Draft.IndustryID
	}
	if s.Filters.Applied.IndustryID != "" {
		return s.Filters.Applied.IndustryID
	}
	if s.Selection.Industry != nil {
		return s.Selection.Industry.DocumentID
	}
	return ""
}

// deriveRanges recomputes the filter bounds for the session's current
// industry scope using a generation token: the counter is incremented
// atomically in storage before the population fetch, and the result is
// discarded if another derivation superseded it in the meantime. A fetch
// failure keeps the previous ranges.
func (m *Manager) deriveRanges(ctx context.Context, id string) (*models.Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	gen, err := m.repo.BumpRangeGen(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to bump range generation: %w", err)
	}

	derived, err := m.deriver.Ranges(ctx, s.Language, industryScope(s))
	if err != nil {
		// Previous ranges stay in place; the filter UI keeps working
		return nil, err
	}

	s, err = m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Filters.RangeGen != gen {
		slog.Debug("discarding superseded range derivation", "session", id, "gen", gen)
		return s, nil
	}

	return m.mutate(ctx, id, func(s *models.Session) error {
		if s.Filters.RangeGen != gen {
			return nil
		}
		s.Filters.Ranges = derived
		if reconciled, changed := filters.Reconcile(s.Filters.Draft, derived); changed {
			s.Filters.Draft = reconciled
		}
		if reconciled, changed := filters.Reconcile(s.Filters.Applied, derived); changed {
			s.Filters.Applied = reconciled
		}
		return nil
	})
}

// rangesOrCurrent re-derives ranges, falling back to the current session on
// failure so a dead backend never breaks the wizard
func (m *Manager) rangesOrCurrent(ctx context.Context, s *models.Session) (*models.Session, error) {
	updated, err := m.deriveRanges(ctx, s.ID)
	if err != nil {
		slog.Warn("range derivation failed", "session", s.ID, "error", err)
		return s, nil
	}
	return updated, nil
}
