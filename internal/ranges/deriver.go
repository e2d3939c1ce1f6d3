// Package ranges derives the technical-filter bounds from the robot
// population currently in scope.
package ranges

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/smartconfig/configurator-engine/internal/cache"
	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/models"
)

// Derive computes the filter bounds from a robot population:
// payload range = [floor(min), ceil(max)] over non-null payloads, reach
// range rounded outward to multiples of 50, protections = sorted distinct
// non-empty ratings. An empty population yields the placeholder defaults.
func Derive(robots []models.Robot) models.Ranges {
	var payloads []float64
	var reaches []int
	protectionSet := make(map[string]struct{})

	for _, r := range robots {
		if r.MaxPayloadKg > 0 {
			payloads = append(payloads, r.MaxPayloadKg)
		}
		if r.MaxReachMm > 0 {
			reaches = append(reaches, r.MaxReachMm)
		}
		if r.Protection != "" {
			protectionSet[r.Protection] = struct{}{}
		}
	}

	result := models.DefaultRanges()

	if len(payloads) > 0 {
		minP, maxP := payloads[0], payloads[0]
		for _, p := range payloads[1:] {
			if p < minP {
				minP = p
			}
			if p > maxP {
				maxP = p
			}
		}
		result.PayloadMin = math.Floor(minP)
		result.PayloadMax = math.Ceil(maxP)
	}

	if len(reaches) > 0 {
		minR, maxR := reaches[0], reaches[0]
		for _, r := range reaches[1:] {
			if r < minR {
				minR = r
			}
			if r > maxR {
				maxR = r
			}
		}
		result.ReachMin = (minR / 50) * 50
		result.ReachMax = ((maxR + 49) / 50) * 50
	}

	if len(protectionSet) > 0 {
		protections := make([]string, 0, len(protectionSet))
		for p := range protectionSet {
			protections = append(protections, p)
		}
		sort.Strings(protections)
		result.Protections = protections
	}

	return result
}

// Deriver fetches the scoped robot population and derives ranges from it,
// caching results per scope+locale.
type Deriver struct {
	src   catalog.Source
	cache *cache.Cache // optional
}

// NewDeriver creates a range deriver over the given catalog source
func NewDeriver(src catalog.Source, c *cache.Cache) *Deriver {
	return &Deriver{src: src, cache: c}
}

// Ranges computes the bounds for the robot population matching the industry
// scope (empty scope = full population)
func (d *Deriver) Ranges(ctx context.Context, locale, industryID string) (models.Ranges, error) {
	key := fmt.Sprintf("ranges:%s:%s", locale, industryID)

	if d.cache != nil {
		var cached models.Ranges
		if ok, err := d.cache.GetJSON(ctx, key, &cached); err != nil {
			slog.Warn("range cache read failed", "key", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	robots, err := d.src.Robots(ctx, locale, catalog.RobotQuery{IndustryID: industryID})
	if err != nil {
		return models.Ranges{}, fmt.Errorf("failed to fetch robot population: %w", err)
	}

	result := Derive(robots)

	if d.cache != nil {
		if err := d.cache.SetJSON(ctx, key, result); err != nil {
			slog.Warn("range cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}
