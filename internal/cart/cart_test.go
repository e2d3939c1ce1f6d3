package cart

import (
	"errors"
	"testing"

	"github.com/smartconfig/configurator-engine/internal/models"
)

func item(robotID string, robotPrice float64) models.SummaryItem {
	return models.SummaryItem{
		Robot: models.Robot{DocumentID: robotID, Model: robotID, ListPrice: robotPrice},
	}
}

func TestAddAllowsDuplicates(t *testing.T) {
	items := Add(nil, item("robot-1", 10000))
	items = Add(items, item("robot-1", 10000))

	if len(items) != 2 {
		t.Errorf("the same robot must be addable as two configurations, got %d items", len(items))
	}
}

func TestRemoveByIndexWithGuard(t *testing.T) {
	items := []models.SummaryItem{item("robot-1", 10000), item("robot-2", 20000), item("robot-3", 30000)}

	items, err := Remove(items, 1, "robot-2")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items after removal, got %d", len(items))
	}
	if items[0].Robot.DocumentID != "robot-1" || items[1].Robot.DocumentID != "robot-3" {
		t.Errorf("wrong items survived: %s, %s", items[0].Robot.DocumentID, items[1].Robot.DocumentID)
	}
}

func TestRemoveGuardMismatch(t *testing.T) {
	items := []models.SummaryItem{item("robot-1", 10000), item("robot-2", 20000)}

	// A concurrent removal shifted positions: index 0 now holds robot-1,
	// not the robot-2 the UI displayed
	got, err := Remove(items, 0, "robot-2")
	if !errors.Is(err, ErrItemMismatch) {
		t.Fatalf("expected ErrItemMismatch, got %v", err)
	}
	if len(got) != 2 {
		t.Error("a failed removal must leave the cart untouched")
	}
}

func TestRemoveIndexOutOfRange(t *testing.T) {
	items := []models.SummaryItem{item("robot-1", 10000)}

	if _, err := Remove(items, 5, "robot-1"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := Remove(items, -1, "robot-1"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for negative index, got %v", err)
	}
}

func TestTotalPrice(t *testing.T) {
	items := []models.SummaryItem{
		{
			Robot:      models.Robot{DocumentID: "robot-1", ListPrice: 42000},
			Controller: &models.Controller{DocumentID: "ctrl-1", ListPrice: 8000},
			Accessories: []models.SelectedAccessory{
				{Accessory: models.Accessory{DocumentID: "acc-1", ListPrice: 1200}, Quantity: 3},
				{Accessory: models.Accessory{DocumentID: "acc-2", ListPrice: 500}, Quantity: 1},
			},
		},
		{
			// No controller, no prices on accessories: they count as zero
			Robot: models.Robot{DocumentID: "robot-2", ListPrice: 15000},
			Accessories: []models.SelectedAccessory{
				{Accessory: models.Accessory{DocumentID: "acc-3"}, Quantity: 2},
			},
		},
	}

	want := 42000.0 + 8000 + 1200*3 + 500 + 15000
	if got := TotalPrice(items); got != want {
		t.Errorf("expected total %v, got %v", want, got)
	}
}

func TestValidateContact(t *testing.T) {
	valid := models.ContactForm{Name: "Ana", Company: "Acme Robotics", Email: "ana@acme.example"}
	if err := ValidateContact(valid); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}

	tests := []struct {
		name  string
		form  models.ContactForm
		field string
	}{
		{"missing name", models.ContactForm{Company: "Acme", Email: "a@b.c"}, "name"},
		{"missing company", models.ContactForm{Name: "Ana", Email: "a@b.c"}, "company"},
		{"whitespace company", models.ContactForm{Name: "Ana", Company: "   ", Email: "a@b.c"}, "company"},
		{"missing email", models.ContactForm{Name: "Ana", Company: "Acme"}, "email"},
		{"email without dot", models.ContactForm{Name: "Ana", Company: "Acme", Email: "ana@acme"}, "email"},
		{"email without at", models.ContactForm{Name: "Ana", Company: "Acme", Email: "ana.acme.example"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContact(tt.form)
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected a FieldError, got %v", err)
			}
			if fieldErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, fieldErr.Field)
			}
		})
	}
}

func TestBuildContactRequest(t *testing.T) {
	form := models.ContactForm{Name: "Ana", Company: "Acme Robotics", Email: "ana@acme.example", Phone: "+34 600 000 000"}
	items := []models.SummaryItem{item("robot-1", 42000)}

	req, err := BuildContactRequest(form, items)
	if err != nil {
		t.Fatalf("BuildContactRequest failed: %v", err)
	}

	if req.Status != "pending" {
		t.Errorf("expected status pending, got %q", req.Status)
	}
	if req.TotalPrice != 42000 {
		t.Errorf("expected total 42000, got %v", req.TotalPrice)
	}
	if len(req.RobotConfigurations) != 1 {
		t.Errorf("expected 1 configuration in the payload, got %d", len(req.RobotConfigurations))
	}
	if req.Company != form.Company || req.Email != form.Email {
		t.Error("contact fields must be carried into the payload")
	}
}

func TestBuildContactRequestEmptyCart(t *testing.T) {
	form := models.ContactForm{Name: "Ana", Company: "Acme", Email: "ana@acme.example"}

	if _, err := BuildContactRequest(form, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}
