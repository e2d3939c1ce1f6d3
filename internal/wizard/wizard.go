// Package wizard implements the linear step sequence of the configurator
// and its table-driven back navigation.
package wizard

import "github.com/smartconfig/configurator-engine/internal/models"

// Context carries the state the back table depends on: how the flow was
// entered and which step preceded the jump to the summary.
type Context struct {
	EntryMode             models.EntryMode
	LastStepBeforeSummary models.Step
}

// Valid reports whether s names a known step
func Valid(s models.Step) bool {
	switch s {
	case models.StepMode, models.StepIndustry, models.StepTechFilters,
		models.StepFamilies, models.StepRobots, models.StepConfiguration,
		models.StepSummary:
		return true
	}
	return false
}

// BackStep resolves where "back" leads from the given step. Not a history
// stack: FAMILIES returns to the entry branch that was used, and SUMMARY
// returns to the step remembered before the jump (default ROBOTS). MODE is
// terminal; the bool is false there.
func BackStep(current models.Step, ctx Context) (models.Step, bool) {
	switch current {
	case models.StepMode:
		return "", false
	case models.StepIndustry, models.StepTechFilters:
		return models.StepMode, true
	case models.StepFamilies:
		if ctx.EntryMode == models.EntryByIndustry {
			return models.StepIndustry, true
		}
		return models.StepTechFilters, true
	case models.StepRobots:
		return models.StepFamilies, true
	case models.StepConfiguration:
		return models.StepRobots, true
	case models.StepSummary:
		if ctx.LastStepBeforeSummary != "" {
			return ctx.LastStepBeforeSummary, true
		}
		return models.StepRobots, true
	}
	return "", false
}

// EntryStep maps the mode choice to the first branch step
func EntryStep(mode models.EntryMode) models.Step {
	if mode == models.EntryByIndustry {
		return models.StepIndustry
	}
	return models.StepTechFilters
}
