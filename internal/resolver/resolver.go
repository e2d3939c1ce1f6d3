// Package resolver determines which accessories a chosen robot requires,
// which remain optional, and which are blocked by exclusion rules.
package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/models"
)

// Load holds everything needed to configure one robot: the available
// controllers, the robot's accessory links and the global exclusion set.
type Load struct {
	Controllers []models.Controller
	Links       []models.AccessoryLink
	Exclusions  []models.AccessoryExclusion
}

// Fetch runs the three reads concurrently and fails as a unit: a single
// error surfaces one load failure and the caller's selection state stays
// untouched (re-selecting the robot retries).
func Fetch(ctx context.Context, src catalog.Source, locale, robotDocumentID string) (*Load, error) {
	var load Load

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ctrls, err := src.Controllers(gctx, locale)
		if err != nil {
			return err
		}
		load.Controllers = ctrls
		return nil
	})

	g.Go(func() error {
		links, err := src.AccessoryLinks(gctx, locale, robotDocumentID)
		if err != nil {
			return err
		}
		load.Links = links
		return nil
	})

	g.Go(func() error {
		excl, err := src.Exclusions(gctx, locale)
		if err != nil {
			return err
		}
		load.Exclusions = excl
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &load, nil
}

// MandatoryLinks returns the links flagged mandatory
func (l *Load) MandatoryLinks() []models.AccessoryLink {
	var result []models.AccessoryLink
	for _, link := range l.Links {
		if link.Mandatory {
			result = append(result, link)
		}
	}
	return result
}

// OptionalLinks returns the links not flagged mandatory
func (l *Load) OptionalLinks() []models.AccessoryLink {
	var result []models.AccessoryLink
	for _, link := range l.Links {
		if !link.Mandatory {
			result = append(result, link)
		}
	}
	return result
}

// LinkFor returns the robot's link for the given accessory, or nil
func (l *Load) LinkFor(accessoryDocumentID string) *models.AccessoryLink {
	for i := range l.Links {
		if l.Links[i].Accessory != nil && l.Links[i].Accessory.DocumentID == accessoryDocumentID {
			return &l.Links[i]
		}
	}
	return nil
}

// DefaultController picks the robot's linked controller when present, else
// the first available controller. Returns nil when neither exists.
func DefaultController(robot *models.Robot, controllers []models.Controller) *models.Controller {
	if robot != nil && robot.Controller != nil {
		ctrl := *robot.Controller
		return &ctrl
	}
	if len(controllers) > 0 {
		ctrl := controllers[0]
		return &ctrl
	}
	return nil
}

// ApplyMandatory auto-selects every mandatory accessory (quantity 1) not
// already in the selection
func ApplyMandatory(selected []models.SelectedAccessory, links []models.AccessoryLink) []models.SelectedAccessory {
	for _, link := range links {
		if !link.Mandatory || link.Accessory == nil {
			continue
		}
		if isSelected(selected, link.Accessory.DocumentID) {
			continue
		}
		selected = append(selected, models.SelectedAccessory{
			Accessory: *link.Accessory,
			Mandatory: true,
			Quantity:  1,
		})
	}
	return selected
}

func isSelected(selected []models.SelectedAccessory, accessoryDocumentID string) bool {
	for _, s := range selected {
		if s.Accessory.DocumentID == accessoryDocumentID {
			return true
		}
	}
	return false
}

// IsExcluded reports whether any currently selected accessory forms an
// exclusion pair with the candidate, in either order.
func IsExcluded(selected []models.SelectedAccessory, exclusions []models.AccessoryExclusion, candidateDocumentID string) bool {
	for _, s := range selected {
		for i := range exclusions {
			if exclusions[i].Matches(s.Accessory.DocumentID, candidateDocumentID) {
				return true
			}
		}
	}
	return false
}

// Toggle flips an optional accessory. Already-selected optional links are
// removed; unselected, non-excluded links are added with quantity 1.
// Toggling a mandatory or excluded accessory is a no-op. The bool reports
// whether the selection changed.
func Toggle(selected []models.SelectedAccessory, link models.AccessoryLink, exclusions []models.AccessoryExclusion) ([]models.SelectedAccessory, bool) {
	if link.Accessory == nil {
		return selected, false
	}
	id := link.Accessory.DocumentID

	if isSelected(selected, id) {
		if link.Mandatory {
			return selected, false
		}
		result := make([]models.SelectedAccessory, 0, len(selected)-1)
		for _, s := range selected {
			if s.Accessory.DocumentID != id {
				result = append(result, s)
			}
		}
		return result, true
	}

	if IsExcluded(selected, exclusions, id) {
		return selected, false
	}

	return append(selected, models.SelectedAccessory{
		Accessory: *link.Accessory,
		Mandatory: link.Mandatory,
		Quantity:  1,
	}), true
}

// SetQuantity updates the quantity of an already-selected accessory in
// place. The value is stored as given; clamping to the link's
// [min_quantity, max_quantity] is the caller's responsibility.
func SetQuantity(selected []models.SelectedAccessory, accessoryDocumentID string, quantity int) ([]models.SelectedAccessory, bool) {
	for i := range selected {
		if selected[i].Accessory.DocumentID == accessoryDocumentID {
			if selected[i].Quantity == quantity {
				return selected, false
			}
			selected[i].Quantity = quantity
			return selected, true
		}
	}
	return selected, false
}
