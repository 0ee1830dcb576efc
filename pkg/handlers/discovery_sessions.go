package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/forms"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/services"
)

// sessionDateFormat is the wire format of the session date form field.
const sessionDateFormat = "2006-01-02"

// SessionRequest carries the discovery session form fields for
// create/update. SessionDate arrives as a date-only string; empty defaults
// to today.
type SessionRequest struct {
	ClientName      string     `json:"client_name"`
	OpportunityName *string    `json:"opportunity_name,omitempty"`
	SessionDate     string     `json:"session_date,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	TemplateID      *uuid.UUID `json:"template_id,omitempty"`

	// SectionNotes is the per-section alternative to Notes, used when the
	// session is structured by a template.
	SectionNotes map[string]string `json:"section_notes,omitempty"`
}

// SessionListResponse for GET /api/discovery-sessions
type SessionListResponse struct {
	Sessions []*models.DiscoverySession `json:"sessions"`
	Total    int                        `json:"total"`
}

// LinkSolutionRequest for POST /api/discovery-sessions/{id}/solutions
type LinkSolutionRequest struct {
	SolutionID uuid.UUID `json:"solution_id"`
}

// LinkedSolutionsResponse for GET /api/discovery-sessions/{id}/solutions
type LinkedSolutionsResponse struct {
	Solutions []models.LinkedSolution `json:"solutions"`
	Total     int                     `json:"total"`
}

// DiscoverySessionsHandler handles discovery session HTTP requests,
// including the session-solution link routes.
type DiscoverySessionsHandler struct {
	discoveryService services.DiscoveryService
	logger           *zap.Logger
}

// NewDiscoverySessionsHandler creates a new discovery sessions handler.
func NewDiscoverySessionsHandler(discoveryService services.DiscoveryService, logger *zap.Logger) *DiscoverySessionsHandler {
	return &DiscoverySessionsHandler{discoveryService: discoveryService, logger: logger}
}

// RegisterRoutes registers the discovery sessions routes on the given mux.
func (h *DiscoverySessionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/discovery-sessions", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/discovery-sessions", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/discovery-sessions/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/discovery-sessions/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/discovery-sessions/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/discovery-sessions/{id}/solutions", authMiddleware.RequireAuth(h.ListSolutions))
	mux.HandleFunc("POST /api/discovery-sessions/{id}/solutions", authMiddleware.RequireAuth(h.LinkSolution))
	mux.HandleFunc("DELETE /api/discovery-sessions/{id}/solutions/{solutionID}", authMiddleware.RequireAuth(h.UnlinkSolution))
}

// List handles GET /api/discovery-sessions with an optional picker search
// query ?q=.
func (h *DiscoverySessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	sessions, err := h.discoveryService.ListSessions(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list discovery sessions", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	response := SessionListResponse{Sessions: sessions, Total: len(sessions)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/discovery-sessions
func (h *DiscoverySessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeSession(w, r)
	if !ok {
		return
	}

	session, err := h.discoveryService.CreateSession(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create discovery session", zap.String("client_name", input.ClientName), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: session}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/discovery-sessions/{id}. The payload embeds the
// session's template and linked solutions.
func (h *DiscoverySessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.discoveryService.GetSession(r.Context(), id)
	if err != nil {
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: session}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/discovery-sessions/{id}
func (h *DiscoverySessionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	input, ok := h.decodeSession(w, r)
	if !ok {
		return
	}

	session, err := h.discoveryService.UpdateSession(r.Context(), id, input)
	if err != nil {
		h.logger.Error("Failed to update discovery session", zap.String("session_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: session}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/discovery-sessions/{id}
func (h *DiscoverySessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.discoveryService.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete discovery session", zap.String("session_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Discovery session deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListSolutions handles GET /api/discovery-sessions/{id}/solutions
func (h *DiscoverySessionsHandler) ListSolutions(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.discoveryService.GetSession(r.Context(), id)
	if err != nil {
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	solutions := session.LinkedSolutions
	if solutions == nil {
		solutions = []models.LinkedSolution{}
	}
	response := LinkedSolutionsResponse{Solutions: solutions, Total: len(solutions)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// LinkSolution handles POST /api/discovery-sessions/{id}/solutions.
// Linking an already-linked solution is reported as an informational
// success, not a failure.
func (h *DiscoverySessionsHandler) LinkSolution(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req LinkSolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SolutionID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "solution_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	err := h.discoveryService.LinkSolution(r.Context(), id, req.SolutionID)
	if errors.Is(err, apperrors.ErrAlreadyLinked) {
		if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Solution already linked"}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}
	if err != nil {
		h.logger.Error("Failed to link solution",
			zap.String("session_id", id.String()),
			zap.String("solution_id", req.SolutionID.String()),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "Solution linked"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UnlinkSolution handles DELETE /api/discovery-sessions/{id}/solutions/{solutionID}.
// Unlinking an absent pair is a silent no-op.
func (h *DiscoverySessionsHandler) UnlinkSolution(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	solutionID, ok := ParseLinkedSolutionID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.discoveryService.UnlinkSolution(r.Context(), id, solutionID); err != nil {
		h.logger.Error("Failed to unlink solution",
			zap.String("session_id", id.String()),
			zap.String("solution_id", solutionID.String()),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Solution unlinked"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeSession parses and validates the session form body. On failure it
// writes the error response and returns false.
func (h *DiscoverySessionsHandler) decodeSession(w http.ResponseWriter, r *http.Request) (services.SessionInput, bool) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.SessionInput{}, false
	}

	form := forms.NewValue(map[string]string{"client_name": req.ClientName})
	if fieldErrors := forms.SessionSchema().Validate(form); len(fieldErrors) > 0 {
		if err := ValidationErrorResponse(w, fieldErrors); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.SessionInput{}, false
	}

	sessionDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.SessionDate != "" {
		parsed, err := time.Parse(sessionDateFormat, req.SessionDate)
		if err != nil {
			if err := ValidationErrorResponse(w, []forms.FieldError{
				{Field: "session_date", Message: "must be a date in YYYY-MM-DD format"},
			}); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return services.SessionInput{}, false
		}
		sessionDate = parsed
	}

	return services.SessionInput{
		ClientName:      req.ClientName,
		OpportunityName: req.OpportunityName,
		SessionDate:     sessionDate,
		Notes:           req.Notes,
		SectionNotes:    req.SectionNotes,
		TemplateID:      req.TemplateID,
	}, true
}
