package wizard

import (
	"testing"

	"github.com/smartconfig/configurator-engine/internal/models"
)

func TestBackStep(t *testing.T) {
	tests := []struct {
		name    string
		current models.Step
		ctx     Context
		want    models.Step
		ok      bool
	}{
		{"mode is terminal", models.StepMode, Context{}, "", false},
		{"industry back to mode", models.StepIndustry, Context{EntryMode: models.EntryByIndustry}, models.StepMode, true},
		{"tech filters back to mode", models.StepTechFilters, Context{EntryMode: models.EntryByParameters}, models.StepMode, true},
		{"families back to industry branch", models.StepFamilies, Context{EntryMode: models.EntryByIndustry}, models.StepIndustry, true},
		{"families back to filters branch", models.StepFamilies, Context{EntryMode: models.EntryByParameters}, models.StepTechFilters, true},
		{"robots back to families", models.StepRobots, Context{EntryMode: models.EntryByIndustry}, models.StepFamilies, true},
		{"configuration back to robots", models.StepConfiguration, Context{}, models.StepRobots, true},
		{"summary back to remembered step", models.StepSummary, Context{LastStepBeforeSummary: models.StepFamilies}, models.StepFamilies, true},
		{"summary default back to robots", models.StepSummary, Context{}, models.StepRobots, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BackStep(tt.current, tt.ctx)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEntryStep(t *testing.T) {
	if got := EntryStep(models.EntryByIndustry); got != models.StepIndustry {
		t.Errorf("industry mode must enter at INDUSTRY, got %q", got)
	}
	if got := EntryStep(models.EntryByParameters); got != models.StepTechFilters {
		t.Errorf("parameters mode must enter at TECH_FILTERS, got %q", got)
	}
}

func TestValid(t *testing.T) {
	for _, s := range []models.Step{
		models.StepMode, models.StepIndustry, models.StepTechFilters,
		models.StepFamilies, models.StepRobots, models.StepConfiguration,
		models.StepSummary,
	} {
		if !Valid(s) {
			t.Errorf("step %q must be valid", s)
		}
	}

	if Valid("CHECKOUT") {
		t.Error("unknown step must be invalid")
	}
	if Valid("") {
		t.Error("empty step must be invalid")
	}
}
