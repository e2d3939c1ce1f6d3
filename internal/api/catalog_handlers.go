package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/models"
	"github.com/smartconfig/configurator-engine/internal/resolver"
)

// Catalog pass-through handlers. Lists are cached per locale+query when a
// cache is configured; the backend stays the source of truth.

func (s *Server) locale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	return s.defaultLocale
}

// cachedList serves a catalog list through the cache
func cachedList[T any](ctx context.Context, s *Server, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		var cached []T
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
			slog.Warn("catalog cache read failed", "key", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, items); err != nil {
			slog.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}

	return items, nil
}

func (s *Server) handleListIndustries(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)

	industries, err := cachedList(r.Context(), s, "industries:"+locale, func(ctx context.Context) ([]models.Industry, error) {
		return s.catalogSrc.Industries(ctx, locale)
	})
	if err != nil {
		respondDomainError(w, err, "list industries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"industries": industries,
		"total":      len(industries),
	})
}

func (s *Server) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)
	q := catalog.FamilyQuery{
		IndustryID: r.URL.Query().Get("industry"),
	}

	families, err := cachedList(r.Context(), s, "families:"+locale+":"+q.IndustryID, func(ctx context.Context) ([]models.Family, error) {
		return s.catalogSrc.Families(ctx, locale, q)
	})
	if err != nil {
		respondDomainError(w, err, "list families")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"families": families,
		"total":    len(families),
	})
}

func (s *Server) handleListControllers(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)

	controllers, err := cachedList(r.Context(), s, "controllers:"+locale, func(ctx context.Context) ([]models.Controller, error) {
		return s.catalogSrc.Controllers(ctx, locale)
	})
	if err != nil {
		respondDomainError(w, err, "list controllers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"controllers": controllers,
		"total":       len(controllers),
	})
}

func (s *Server) handleListRobots(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)
	q := catalog.RobotQuery{
		FamilyID:   r.URL.Query().Get("family"),
		IndustryID: r.URL.Query().Get("industry"),
	}

	if f := parseFilterQuery(r); !f.IsZero() {
		q.Filters = &f
	}

	// Filtered robot lists are not cached: the predicate space is too wide
	robots, err := s.catalogSrc.Robots(r.Context(), locale, q)
	if err != nil {
		respondDomainError(w, err, "list robots")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"robots": robots,
		"total":  len(robots),
	})
}

func (s *Server) handleGetRobot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "robot id is required")
		return
	}

	robot, err := s.catalogSrc.RobotByID(r.Context(), s.locale(r), id)
	if err != nil {
		respondDomainError(w, err, "get robot")
		return
	}

	respondJSON(w, http.StatusOK, robot)
}

// handleRobotAccessories returns the robot's full accessory picture:
// mandatory and optional links plus the exclusion pairs that apply
func (s *Server) handleRobotAccessories(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "robot id is required")
		return
	}

	load, err := resolver.Fetch(r.Context(), s.catalogSrc, s.locale(r), id)
	if err != nil {
		respondDomainError(w, err, "load robot accessories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"mandatory":  load.MandatoryLinks(),
		"optional":   load.OptionalLinks(),
		"exclusions": load.Exclusions,
	})
}

// parseFilterQuery reads technical filter predicates from query parameters
func parseFilterQuery(r *http.Request) models.TechFilters {
	var f models.TechFilters
	q := r.URL.Query()

	if v := q.Get("payload_min"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.PayloadMin = &p
		}
	}
	if v := q.Get("payload_max"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.PayloadMax = &p
		}
	}
	if v := q.Get("reach_min"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			f.ReachMin = &p
		}
	}
	if v := q.Get("reach_max"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			f.ReachMax = &p
		}
	}
	if v := q.Get("axes"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			f.Axes = &p
		}
	}
	if v := q.Get("collaborative"); v != "" {
		if p, err := strconv.ParseBool(v); err == nil {
			f.Collaborative = &p
		}
	}
	f.Protection = q.Get("protection")

	return f
}
