package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/models"
)

var (
	gripper   = models.Accessory{DocumentID: "acc-gripper", ShortName: "Gripper", ListPrice: 1200}
	camera    = models.Accessory{DocumentID: "acc-camera", ShortName: "Vision Camera", ListPrice: 3400}
	vacuumCup = models.Accessory{DocumentID: "acc-vacuum", ShortName: "Vacuum Cup", ListPrice: 800}
)

func testLoad() *Load {
	return &Load{
		Controllers: []models.Controller{
			{DocumentID: "ctrl-a", Name: "Controller A"},
			{DocumentID: "ctrl-b", Name: "Controller B"},
		},
		Links: []models.AccessoryLink{
			{DocumentID: "link-1", Accessory: &gripper, Mandatory: true, MinQuantity: 1, MaxQuantity: 1},
			{DocumentID: "link-2", Accessory: &camera, Mandatory: false, MinQuantity: 1, MaxQuantity: 4},
			{DocumentID: "link-3", Accessory: &vacuumCup, Mandatory: false, MinQuantity: 1, MaxQuantity: 8},
		},
		Exclusions: []models.AccessoryExclusion{
			{DocumentID: "excl-1", AccessoryA: &gripper, AccessoryB: &vacuumCup},
		},
	}
}

func TestApplyMandatoryAutoSelects(t *testing.T) {
	load := testLoad()

	selected := ApplyMandatory(nil, load.Links)

	if len(selected) != 1 {
		t.Fatalf("expected 1 auto-selected accessory, got %d", len(selected))
	}
	if selected[0].Accessory.DocumentID != gripper.DocumentID {
		t.Errorf("expected the mandatory gripper, got %s", selected[0].Accessory.DocumentID)
	}
	if !selected[0].Mandatory || selected[0].Quantity != 1 {
		t.Errorf("mandatory accessory must be flagged with quantity 1, got %+v", selected[0])
	}
}

func TestApplyMandatoryKeepsExisting(t *testing.T) {
	load := testLoad()
	existing := []models.SelectedAccessory{
		{Accessory: gripper, Mandatory: true, Quantity: 1},
		{Accessory: camera, Quantity: 3},
	}

	selected := ApplyMandatory(existing, load.Links)

	if len(selected) != 2 {
		t.Fatalf("already-present selections must not duplicate, got %d items", len(selected))
	}
	if selected[1].Quantity != 3 {
		t.Errorf("existing quantity must survive, got %d", selected[1].Quantity)
	}
}

func TestToggleAddsOptional(t *testing.T) {
	load := testLoad()
	selected := ApplyMandatory(nil, load.Links)

	selected, changed := Toggle(selected, *load.LinkFor(camera.DocumentID), load.Exclusions)

	if !changed {
		t.Fatal("expected toggle to change the selection")
	}
	if len(selected) != 2 {
		t.Fatalf("expected gripper + camera, got %d items", len(selected))
	}
	if selected[1].Accessory.DocumentID != camera.DocumentID || selected[1].Quantity != 1 {
		t.Errorf("camera must be added with quantity 1, got %+v", selected[1])
	}
}

func TestToggleRemovesSelectedOptional(t *testing.T) {
	load := testLoad()
	selected := []models.SelectedAccessory{
		{Accessory: gripper, Mandatory: true, Quantity: 1},
		{Accessory: camera, Quantity: 2},
	}

	selected, changed := Toggle(selected, *load.LinkFor(camera.DocumentID), load.Exclusions)

	if !changed {
		t.Fatal("expected toggle to change the selection")
	}
	if len(selected) != 1 || selected[0].Accessory.DocumentID != gripper.DocumentID {
		t.Errorf("only the gripper should remain, got %+v", selected)
	}
}

func TestToggleMandatoryIsNoOp(t *testing.T) {
	load := testLoad()
	selected := ApplyMandatory(nil, load.Links)

	got, changed := Toggle(selected, *load.LinkFor(gripper.DocumentID), load.Exclusions)

	if changed {
		t.Error("toggling a mandatory accessory must not change the selection")
	}
	if len(got) != 1 {
		t.Errorf("mandatory accessory must stay selected, got %d items", len(got))
	}
}

func TestToggleExcludedIsNoOp(t *testing.T) {
	load := testLoad()
	// Gripper is selected (mandatory); the vacuum cup is excluded against it
	selected := ApplyMandatory(nil, load.Links)

	got, changed := Toggle(selected, *load.LinkFor(vacuumCup.DocumentID), load.Exclusions)

	if changed {
		t.Error("toggling an excluded accessory must not change the selection")
	}
	if len(got) != 1 {
		t.Errorf("selection must be untouched, got %d items", len(got))
	}
}

func TestExclusionIsSymmetric(t *testing.T) {
	load := testLoad()

	// Vacuum cup selected first; the gripper must then be excluded even
	// though the pair is declared as (gripper, vacuum)
	selected := []models.SelectedAccessory{{Accessory: vacuumCup, Quantity: 1}}

	if !IsExcluded(selected, load.Exclusions, gripper.DocumentID) {
		t.Error("exclusion must apply in both orderings")
	}
	if IsExcluded(selected, load.Exclusions, camera.DocumentID) {
		t.Error("camera is not part of any exclusion pair")
	}
}

func TestSetQuantityStoresAsGiven(t *testing.T) {
	selected := []models.SelectedAccessory{{Accessory: camera, Quantity: 1}}

	selected, changed := SetQuantity(selected, camera.DocumentID, 3)
	if !changed || selected[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d (changed=%v)", selected[0].Quantity, changed)
	}

	// Same value again is a no-op
	_, changed = SetQuantity(selected, camera.DocumentID, 3)
	if changed {
		t.Error("setting the same quantity must not report a change")
	}

	// Unknown accessory is a no-op
	_, changed = SetQuantity(selected, "acc-unknown", 5)
	if changed {
		t.Error("unknown accessory must not report a change")
	}
}

func TestDefaultController(t *testing.T) {
	load := testLoad()
	linked := models.Controller{DocumentID: "ctrl-linked", Name: "Linked"}

	robot := &models.Robot{DocumentID: "r1", Controller: &linked}
	if got := DefaultController(robot, load.Controllers); got == nil || got.DocumentID != "ctrl-linked" {
		t.Errorf("robot's linked controller must win, got %+v", got)
	}

	robot = &models.Robot{DocumentID: "r1"}
	if got := DefaultController(robot, load.Controllers); got == nil || got.DocumentID != "ctrl-a" {
		t.Errorf("first available controller expected as fallback, got %+v", got)
	}

	if got := DefaultController(robot, nil); got != nil {
		t.Errorf("no controllers available, expected nil, got %+v", got)
	}
}

// fetchSource stubs the three resolver reads
type fetchSource struct {
	catalog.Source
	load    *Load
	linkErr error
}

func (s *fetchSource) Controllers(ctx context.Context, locale string) ([]models.Controller, error) {
	return s.load.Controllers, nil
}

func (s *fetchSource) AccessoryLinks(ctx context.Context, locale, robotDocumentID string) ([]models.AccessoryLink, error) {
	if s.linkErr != nil {
		return nil, s.linkErr
	}
	return s.load.Links, nil
}

func (s *fetchSource) Exclusions(ctx context.Context, locale string) ([]models.AccessoryExclusion, error) {
	return s.load.Exclusions, nil
}

func TestFetchLoadsAllThree(t *testing.T) {
	src := &fetchSource{load: testLoad()}

	load, err := Fetch(context.Background(), src, "es", "robot-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(load.Controllers) != 2 || len(load.Links) != 3 || len(load.Exclusions) != 1 {
		t.Errorf("incomplete load: %d controllers, %d links, %d exclusions",
			len(load.Controllers), len(load.Links), len(load.Exclusions))
	}
	if len(load.MandatoryLinks()) != 1 || len(load.OptionalLinks()) != 2 {
		t.Errorf("expected 1 mandatory and 2 optional links, got %d and %d",
			len(load.MandatoryLinks()), len(load.OptionalLinks()))
	}
}

func TestFetchFailsAsAUnit(t *testing.T) {
	wantErr := errors.New("backend down")
	src := &fetchSource{load: testLoad(), linkErr: wantErr}

	load, err := Fetch(context.Background(), src, "es", "robot-1")
	if err == nil {
		t.Fatal("expected Fetch to fail when one read fails")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected the underlying error, got %v", err)
	}
	if load != nil {
		t.Error("a failed fetch must not return a partial load")
	}
}
