package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/smartconfig/configurator-engine/internal/models"
)

// FixtureSource serves the catalog from a directory of YAML files instead of
// the remote backend. Used for demo deployments and tests. Contact requests
// are collected in memory.
type FixtureSource struct {
	mu          sync.RWMutex
	industries  map[string]models.Industry
	families    map[string]models.Family
	controllers map[string]models.Controller
	robots      map[string]models.Robot
	accessories map[string]models.Accessory
	links       []models.AccessoryLink
	linkRobots  []string // robot document id per link, same index
	exclusions  []models.AccessoryExclusion
	contacts    []models.ContactRequest
}

// NewFixtureSource creates an empty fixture source
func NewFixtureSource() *FixtureSource {
	return &FixtureSource{
		industries:  make(map[string]models.Industry),
		families:    make(map[string]models.Family),
		controllers: make(map[string]models.Controller),
		robots:      make(map[string]models.Robot),
		accessories: make(map[string]models.Accessory),
	}
}

// --- YAML file structs ---

type fixtureFile struct {
	Industries  []fixtureIndustry   `yaml:"industries"`
	Families    []fixtureFamily     `yaml:"families"`
	Controllers []fixtureController `yaml:"controllers"`
	Accessories []fixtureAccessory  `yaml:"accessories"`
	Robots      []fixtureRobot      `yaml:"robots"`
	Links       []fixtureLink       `yaml:"links"`
	Exclusions  []fixtureExclusion  `yaml:"exclusions"`
}

type fixtureIndustry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

type fixtureFamily struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Industries  []string `yaml:"industries"`
}

type fixtureController struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Generation  string  `yaml:"generation"`
	MaxAxes     int     `yaml:"max_axes"`
	ListPrice   float64 `yaml:"list_price"`
	Description string  `yaml:"description"`
	Image       string  `yaml:"image"`
}

type fixtureAccessory struct {
	ID          string   `yaml:"id"`
	ShortName   string   `yaml:"short_name"`
	ListPrice   float64  `yaml:"list_price"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Categories  []string `yaml:"categories"`
}

type fixtureRobot struct {
	ID            string   `yaml:"id"`
	Model         string   `yaml:"model"`
	ModelCode     string   `yaml:"model_code"`
	Axes          int      `yaml:"axes"`
	MaxPayloadKg  float64  `yaml:"max_payload_kg"`
	MaxReachMm    int      `yaml:"max_reach_mm"`
	ListPrice     float64  `yaml:"list_price"`
	Collaborative bool     `yaml:"collaborative"`
	Protection    string   `yaml:"protection"`
	Description   string   `yaml:"description"`
	Image         string   `yaml:"image"`
	Family        string   `yaml:"family"`
	Controller    string   `yaml:"controller"`
	Industries    []string `yaml:"industries"`
}

type fixtureLink struct {
	ID          string `yaml:"id"`
	Robot       string `yaml:"robot"`
	Accessory   string `yaml:"accessory"`
	Mandatory   bool   `yaml:"mandatory"`
	MinQuantity int    `yaml:"min_quantity"`
	MaxQuantity int    `yaml:"max_quantity"`
	Notes       string `yaml:"notes"`
}

type fixtureExclusion struct {
	ID         string `yaml:"id"`
	AccessoryA string `yaml:"accessory_a"`
	AccessoryB string `yaml:"accessory_b"`
	Reason     string `yaml:"reason"`
}

// LoadFromDir loads every *.yaml / *.yml file from a directory. Files may
// declare any subset of the catalog sections; references are resolved after
// all files are read.
func (s *FixtureSource) LoadFromDir(dir string) error {
	slog.Info("loading catalog fixtures from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := s.LoadFromFile(file); err != nil {
			slog.Warn("failed to load fixture file", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("catalog fixtures loaded", "files", loaded,
		"industries", len(s.industries), "families", len(s.families),
		"robots", len(s.robots), "links", len(s.links))
	return nil
}

// LoadFromFile loads a single fixture YAML file
func (s *FixtureSource) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range f.Industries {
		if w.ID == "" {
			return fmt.Errorf("industry id is required")
		}
		s.industries[w.ID] = models.Industry{
			DocumentID:  w.ID,
			Name:        w.Name,
			Slug:        w.Slug,
			Description: w.Description,
			ImageURL:    w.Image,
		}
	}

	for _, w := range f.Controllers {
		if w.ID == "" {
			return fmt.Errorf("controller id is required")
		}
		s.controllers[w.ID] = models.Controller{
			DocumentID:  w.ID,
			Name:        w.Name,
			Generation:  w.Generation,
			MaxAxes:     w.MaxAxes,
			ListPrice:   w.ListPrice,
			Description: w.Description,
			ImageURL:    w.Image,
		}
	}

	for _, w := range f.Accessories {
		if w.ID == "" {
			return fmt.Errorf("accessory id is required")
		}
		acc := models.Accessory{
			DocumentID:  w.ID,
			ShortName:   w.ShortName,
			ListPrice:   w.ListPrice,
			Description: w.Description,
			ImageURL:    w.Image,
		}
		for _, cat := range w.Categories {
			acc.Categories = append(acc.Categories, models.AccessoryCategory{DocumentID: cat, Name: cat})
		}
		s.accessories[w.ID] = acc
	}

	for _, w := range f.Families {
		if w.ID == "" {
			return fmt.Errorf("family id is required")
		}
		fam := models.Family{
			DocumentID:  w.ID,
			Name:        w.Name,
			Slug:        w.Slug,
			Description: w.Description,
			ImageURL:    w.Image,
		}
		for _, ind := range w.Industries {
			if i, ok := s.industries[ind]; ok {
				fam.Industries = append(fam.Industries, i)
			}
		}
		s.families[w.ID] = fam
	}

	for _, w := range f.Robots {
		if w.ID == "" {
			return fmt.Errorf("robot id is required")
		}
		r := models.Robot{
			DocumentID:    w.ID,
			Model:         w.Model,
			ModelCode:     w.ModelCode,
			Axes:          w.Axes,
			MaxPayloadKg:  w.MaxPayloadKg,
			MaxReachMm:    w.MaxReachMm,
			ListPrice:     w.ListPrice,
			Collaborative: w.Collaborative,
			Protection:    w.Protection,
			Description:   w.Description,
			ImageURL:      w.Image,
		}
		if fam, ok := s.families[w.Family]; ok {
			famCopy := fam
			r.Family = &famCopy
		}
		if ctrl, ok := s.controllers[w.Controller]; ok {
			ctrlCopy := ctrl
			r.Controller = &ctrlCopy
		}
		for _, ind := range w.Industries {
			if i, ok := s.industries[ind]; ok {
				r.Industries = append(r.Industries, i)
			}
		}
		s.robots[w.ID] = r
	}

	for _, w := range f.Links {
		acc, ok := s.accessories[w.Accessory]
		if !ok {
			slog.Warn("link references unknown accessory", "link", w.ID, "accessory", w.Accessory)
			continue
		}
		accCopy := acc
		s.links = append(s.links, models.AccessoryLink{
			DocumentID:  w.ID,
			Accessory:   &accCopy,
			Mandatory:   w.Mandatory,
			MinQuantity: w.MinQuantity,
			MaxQuantity: w.MaxQuantity,
			Notes:       w.Notes,
		})
		s.linkRobots = append(s.linkRobots, w.Robot)
	}

	for _, w := range f.Exclusions {
		a, okA := s.accessories[w.AccessoryA]
		b, okB := s.accessories[w.AccessoryB]
		if !okA || !okB {
			slog.Warn("exclusion references unknown accessory", "exclusion", w.ID)
			continue
		}
		aCopy, bCopy := a, b
		s.exclusions = append(s.exclusions, models.AccessoryExclusion{
			DocumentID: w.ID,
			AccessoryA: &aCopy,
			AccessoryB: &bCopy,
			Reason:     w.Reason,
		})
	}

	return nil
}

// --- Source implementation (fixtures ignore the locale) ---

func (s *FixtureSource) Industries(ctx context.Context, locale string) ([]models.Industry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Industry, 0, len(s.industries))
	for _, i := range s.industries {
		result = append(result, i)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

func (s *FixtureSource) Families(ctx context.Context, locale string, q FamilyQuery) ([]models.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Family
	for _, fam := range s.families {
		if !s.familyHasMatchingRobot(fam.DocumentID, q) {
			continue
		}
		result = append(result, fam)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

// familyHasMatchingRobot mirrors the backend's relation predicate: a family
// is visible when at least one of its robots matches the scope.
func (s *FixtureSource) familyHasMatchingRobot(familyID string, q FamilyQuery) bool {
	for _, r := range s.robots {
		if r.Family == nil || r.Family.DocumentID != familyID {
			continue
		}
		if robotMatches(r, RobotQuery{IndustryID: q.IndustryID, Filters: q.Filters}) {
			return true
		}
	}
	return false
}

func robotMatches(r models.Robot, q RobotQuery) bool {
	if q.FamilyID != "" && (r.Family == nil || r.Family.DocumentID != q.FamilyID) {
		return false
	}
	if q.IndustryID != "" {
		found := false
		for _, ind := range r.Industries {
			if ind.DocumentID == q.IndustryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Filters == nil {
		return true
	}
	f := q.Filters
	if f.PayloadMin != nil && r.MaxPayloadKg < *f.PayloadMin {
		return false
	}
	if f.PayloadMax != nil && r.MaxPayloadKg > *f.PayloadMax {
		return false
	}
	if f.ReachMin != nil && r.MaxReachMm < *f.ReachMin {
		return false
	}
	if f.ReachMax != nil && r.MaxReachMm > *f.ReachMax {
		return false
	}
	if f.Axes != nil && r.Axes != *f.Axes {
		return false
	}
	if f.Collaborative != nil && r.Collaborative != *f.Collaborative {
		return false
	}
	if f.Protection != "" && r.Protection != f.Protection {
		return false
	}
	return true
}

func (s *FixtureSource) Robots(ctx context.Context, locale string, q RobotQuery) ([]models.Robot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Robot
	for _, r := range s.robots {
		if robotMatches(r, q) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Model < result[b].Model })
	return result, nil
}

func (s *FixtureSource) RobotByID(ctx context.Context, locale, documentID string) (*models.Robot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.robots[documentID]
	if !ok {
		return nil, fmt.Errorf("robot %s: %w", documentID, ErrNotFound)
	}
	return &r, nil
}

func (s *FixtureSource) Controllers(ctx context.Context, locale string) ([]models.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		result = append(result, c)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

func (s *FixtureSource) AccessoryLinks(ctx context.Context, locale, robotDocumentID string) ([]models.AccessoryLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.AccessoryLink
	for i, link := range s.links {
		if s.linkRobots[i] == robotDocumentID {
			result = append(result, link)
		}
	}
	return result, nil
}

func (s *FixtureSource) Exclusions(ctx context.Context, locale string) ([]models.AccessoryExclusion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.AccessoryExclusion, len(s.exclusions))
	copy(result, s.exclusions)
	return result, nil
}

func (s *FixtureSource) CreateContactRequest(ctx context.Context, req models.ContactRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = append(s.contacts, req)
	slog.Info("contact request recorded (fixture mode)",
		"name", req.Name, "company", req.Company, "configurations", len(req.RobotConfigurations))
	return nil
}

// ContactRequests returns the requests collected in fixture mode
func (s *FixtureSource) ContactRequests() []models.ContactRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.ContactRequest, len(s.contacts))
	copy(result, s.contacts)
	return result
}
