package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartconfig/configurator-engine/internal/filters"
	"github.com/smartconfig/configurator-engine/internal/models"
)

// sessionView augments the raw session with derived values the UI renders
// on every screen
type sessionView struct {
	*models.Session
	CartTotal     float64 `json:"cart_total"`
	ActiveFilters int     `json:"active_filters"`
}

func viewOf(s *models.Session) sessionView {
	return sessionView{
		Session:       s,
		CartTotal:     s.CartTotal(),
		ActiveFilters: filters.ActiveCount(s.Filters.Draft, s.Filters.Ranges),
	}
}

// Session lifecycle

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	sess, err := s.sessions.Create(r.Context(), req.Language)
	if err != nil {
		respondDomainError(w, err, "create session")
		return
	}

	respondJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "get session")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err, "delete session")
		return
	}

	s.hub.CloseSession(id)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

// Wizard actions

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode models.EntryMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess, err := s.sessions.SetMode(r.Context(), chi.URLParam(r, "id"), req.Mode)
	if err != nil {
		respondDomainError(w, err, "set mode")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess, err := s.sessions.SetLanguage(r.Context(), chi.URLParam(r, "id"), req.Language)
	if err != nil {
		respondDomainError(w, err, "set language")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSelectIndustry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IndustryID string `json:"industry_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.IndustryID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "industry_id is required")
		return
	}

	sess, err := s.sessions.SelectIndustry(r.Context(), chi.URLParam(r, "id"), req.IndustryID)
	if err != nil {
		respondDomainError(w, err, "select industry")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSelectFamily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FamilyID string `json:"family_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.FamilyID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "family_id is required")
		return
	}

	sess, err := s.sessions.SelectFamily(r.Context(), chi.URLParam(r, "id"), req.FamilyID)
	if err != nil {
		respondDomainError(w, err, "select family")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

// Robot configuration

func (s *Server) handleSelectRobot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RobotID string `json:"robot_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.RobotID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "robot_id is required")
		return
	}

	sess, err := s.sessions.SelectRobot(r.Context(), chi.URLParam(r, "id"), req.RobotID)
	if err != nil {
		respondDomainError(w, err, "select robot")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleClearRobot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ClearRobot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "clear robot")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSelectController(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ControllerID string `json:"controller_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ControllerID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "controller_id is required")
		return
	}

	sess, err := s.sessions.SelectController(r.Context(), chi.URLParam(r, "id"), req.ControllerID)
	if err != nil {
		respondDomainError(w, err, "select controller")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleToggleAccessory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessoryID string `json:"accessory_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AccessoryID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "accessory_id is required")
		return
	}

	sess, err := s.sessions.ToggleAccessory(r.Context(), chi.URLParam(r, "id"), req.AccessoryID)
	if err != nil {
		respondDomainError(w, err, "toggle accessory")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSetAccessoryQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessoryID string `json:"accessory_id"`
		Quantity    int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AccessoryID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "accessory_id is required")
		return
	}

	sess, err := s.sessions.SetAccessoryQuantity(r.Context(), chi.URLParam(r, "id"), req.AccessoryID, req.Quantity)
	if err != nil {
		respondDomainError(w, err, "set accessory quantity")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

// Filters

func (s *Server) handleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	var req models.TechFilters
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess, err := s.sessions.UpdateFilters(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondDomainError(w, err, "update filters")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ApplyFilters(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "apply filters")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ResetFilters(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "reset filters")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

// Scoped catalog views

func (s *Server) handleSessionFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := s.sessions.Families(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "list session families")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"families": families,
		"total":    len(families),
	})
}

func (s *Server) handleSessionRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := s.sessions.Robots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "list session robots")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"robots": robots,
		"total":  len(robots),
	})
}

func (s *Server) handleSessionRanges(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "get session ranges")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ranges":         sess.Filters.Ranges,
		"active_filters": filters.ActiveCount(sess.Filters.Draft, sess.Filters.Ranges),
	})
}

// Cart

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "confirm configuration")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid cart index")
		return
	}

	// The robot query parameter guards against removing a shifted item
	robotID := r.URL.Query().Get("robot")
	if robotID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "robot query parameter is required")
		return
	}

	sess, err := s.sessions.RemoveCartItem(r.Context(), chi.URLParam(r, "id"), index, robotID)
	if err != nil {
		respondDomainError(w, err, "remove cart item")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ClearCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "clear cart")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var form models.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess, err := s.sessions.Submit(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		respondDomainError(w, err, "submit contact request")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "contact request submitted",
		"total_price": sess.CartTotal(),
	})
}

// Navigation

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "go back")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "reset session")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSetStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step models.Step `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess, err := s.sessions.SetStep(r.Context(), chi.URLParam(r, "id"), req.Step)
	if err != nil {
		respondDomainError(w, err, "set step")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}
