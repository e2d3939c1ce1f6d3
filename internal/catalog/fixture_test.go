package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartconfig/configurator-engine/internal/models"
)

const testCatalog = `
industries:
  - id: ind-auto
    name: Automotive
    slug: automotive
  - id: ind-food
    name: Food & Beverage
    slug: food-beverage

controllers:
  - id: ctrl-c10
    name: C10 Compact
    max_axes: 6
    list_price: 8000
  - id: ctrl-c30
    name: C30 Performance
    max_axes: 9
    list_price: 14500

accessories:
  - id: acc-gripper
    short_name: Parallel Gripper
    list_price: 1200
  - id: acc-vacuum
    short_name: Vacuum Cup
    list_price: 800
  - id: acc-camera
    short_name: Vision Camera
    list_price: 3400

families:
  - id: fam-compact
    name: Compact Line
    industries: [ind-auto]
  - id: fam-heavy
    name: Heavy Line
    industries: [ind-auto, ind-food]

robots:
  - id: robot-cx5
    model: CX-5
    axes: 6
    max_payload_kg: 5
    max_reach_mm: 900
    list_price: 28000
    collaborative: true
    protection: IP54
    family: fam-compact
    controller: ctrl-c10
    industries: [ind-auto]
  - id: robot-hx120
    model: HX-120
    axes: 6
    max_payload_kg: 120
    max_reach_mm: 2800
    list_price: 78000
    collaborative: false
    protection: IP67
    family: fam-heavy
    controller: ctrl-c30
    industries: [ind-auto, ind-food]

links:
  - id: link-1
    robot: robot-cx5
    accessory: acc-gripper
    mandatory: true
    min_quantity: 1
    max_quantity: 1
  - id: link-2
    robot: robot-cx5
    accessory: acc-camera
    min_quantity: 1
    max_quantity: 4

exclusions:
  - id: excl-1
    accessory_a: acc-gripper
    accessory_b: acc-vacuum
    reason: shared tool flange
`

func loadTestFixtures(t *testing.T) *FixtureSource {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(testCatalog), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	src := NewFixtureSource()
	if err := src.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	return src
}

func TestFixtureLoadResolvesReferences(t *testing.T) {
	src := loadTestFixtures(t)
	ctx := context.Background()

	robot, err := src.RobotByID(ctx, "es", "robot-cx5")
	if err != nil {
		t.Fatalf("RobotByID failed: %v", err)
	}

	if robot.Family == nil || robot.Family.DocumentID != "fam-compact" {
		t.Error("family reference must be resolved")
	}
	if robot.Controller == nil || robot.Controller.DocumentID != "ctrl-c10" {
		t.Error("controller reference must be resolved")
	}
	if len(robot.Industries) != 1 || robot.Industries[0].DocumentID != "ind-auto" {
		t.Errorf("industry references must be resolved, got %+v", robot.Industries)
	}
}

func TestFixtureRobotFiltering(t *testing.T) {
	src := loadTestFixtures(t)
	ctx := context.Background()

	// Industry scope
	robots, err := src.Robots(ctx, "es", RobotQuery{IndustryID: "ind-food"})
	if err != nil {
		t.Fatalf("Robots failed: %v", err)
	}
	if len(robots) != 1 || robots[0].DocumentID != "robot-hx120" {
		t.Errorf("industry scope: expected only HX-120, got %+v", robots)
	}

	// Technical filters
	payloadMax := 10.0
	collaborative := true
	robots, err = src.Robots(ctx, "es", RobotQuery{
		Filters: &models.TechFilters{PayloadMax: &payloadMax, Collaborative: &collaborative},
	})
	if err != nil {
		t.Fatalf("Robots failed: %v", err)
	}
	if len(robots) != 1 || robots[0].DocumentID != "robot-cx5" {
		t.Errorf("filter predicates: expected only CX-5, got %+v", robots)
	}

	// Family + protection
	robots, err = src.Robots(ctx, "es", RobotQuery{
		FamilyID: "fam-heavy",
		Filters:  &models.TechFilters{Protection: "IP67"},
	})
	if err != nil {
		t.Fatalf("Robots failed: %v", err)
	}
	if len(robots) != 1 || robots[0].DocumentID != "robot-hx120" {
		t.Errorf("family + protection: expected only HX-120, got %+v", robots)
	}
}

func TestFixtureFamilyVisibility(t *testing.T) {
	src := loadTestFixtures(t)
	ctx := context.Background()

	// A family is visible only while one of its robots matches the scope
	reachMax := 1000
	families, err := src.Families(ctx, "es", FamilyQuery{
		Filters: &models.TechFilters{ReachMax: &reachMax},
	})
	if err != nil {
		t.Fatalf("Families failed: %v", err)
	}
	if len(families) != 1 || families[0].DocumentID != "fam-compact" {
		t.Errorf("expected only the compact line, got %+v", families)
	}

	families, err = src.Families(ctx, "es", FamilyQuery{IndustryID: "ind-food"})
	if err != nil {
		t.Fatalf("Families failed: %v", err)
	}
	if len(families) != 1 || families[0].DocumentID != "fam-heavy" {
		t.Errorf("expected only the heavy line for food industry, got %+v", families)
	}
}

func TestFixtureAccessoryLinks(t *testing.T) {
	src := loadTestFixtures(t)
	ctx := context.Background()

	links, err := src.AccessoryLinks(ctx, "es", "robot-cx5")
	if err != nil {
		t.Fatalf("AccessoryLinks failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links for CX-5, got %d", len(links))
	}

	links, err = src.AccessoryLinks(ctx, "es", "robot-hx120")
	if err != nil {
		t.Fatalf("AccessoryLinks failed: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("HX-120 has no links, got %d", len(links))
	}

	exclusions, err := src.Exclusions(ctx, "es")
	if err != nil {
		t.Fatalf("Exclusions failed: %v", err)
	}
	if len(exclusions) != 1 || !exclusions[0].Matches("acc-vacuum", "acc-gripper") {
		t.Errorf("exclusion must match in both orderings, got %+v", exclusions)
	}
}

func TestFixtureContactRequests(t *testing.T) {
	src := loadTestFixtures(t)
	ctx := context.Background()

	req := models.ContactRequest{Name: "Ana", Company: "Acme", Email: "ana@acme.example", Status: "pending"}
	if err := src.CreateContactRequest(ctx, req); err != nil {
		t.Fatalf("CreateContactRequest failed: %v", err)
	}

	got := src.ContactRequests()
	if len(got) != 1 || got[0].Company != "Acme" {
		t.Errorf("contact request must be recorded, got %+v", got)
	}
}
