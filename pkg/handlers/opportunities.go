package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/forms"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/services"
	"github.com/dealdesk-io/dealdesk-engine/pkg/views"
)

// OpportunityRequest carries the opportunity form fields for create/update.
// EstimatedValue arrives as the raw form text: empty means no value, never
// zero.
type OpportunityRequest struct {
	Name            string  `json:"name"`
	ClientName      string  `json:"client_name"`
	Description     *string `json:"description,omitempty"`
	OpportunityType string  `json:"opportunity_type"`
	Stage           string  `json:"stage,omitempty"`
	EstimatedValue  string  `json:"estimated_value,omitempty"`
}

// OpportunityResponse decorates an opportunity with its badge category and
// display-formatted value for the table and detail views.
type OpportunityResponse struct {
	*models.Opportunity
	StageCategory         models.StageCategory `json:"stage_category"`
	EstimatedValueDisplay string               `json:"estimated_value_display"`
}

// OpportunityListResponse for GET /api/opportunities
type OpportunityListResponse struct {
	Opportunities []OpportunityResponse `json:"opportunities"`
	Total         int                   `json:"total"`
}

// LinkDiscoverySessionRequest for PUT /api/opportunities/{id}/discovery-session
type LinkDiscoverySessionRequest struct {
	DiscoverySessionID uuid.UUID `json:"discovery_session_id"`
}

// OpportunitiesHandler handles sales pipeline HTTP requests.
type OpportunitiesHandler struct {
	opportunityService services.OpportunityService
	logger             *zap.Logger
}

// NewOpportunitiesHandler creates a new opportunities handler.
func NewOpportunitiesHandler(opportunityService services.OpportunityService, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{opportunityService: opportunityService, logger: logger}
}

// RegisterRoutes registers the opportunities handler's routes on the given mux.
func (h *OpportunitiesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/opportunities", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/opportunities", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/opportunities/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/opportunities/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/opportunities/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("PUT /api/opportunities/{id}/discovery-session", authMiddleware.RequireAuth(h.LinkDiscoverySession))
	mux.HandleFunc("DELETE /api/opportunities/{id}/discovery-session", authMiddleware.RequireAuth(h.UnlinkDiscoverySession))
}

// List handles GET /api/opportunities with filter and sort query parameters:
// ?stage=, ?type= (exact match, "All Stages"/"All Types" sentinels pass
// everything), ?sort_by=, ?sort_order=.
func (h *OpportunitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := repositories.OpportunityListOptions{
		Stage:           q.Get("stage"),
		OpportunityType: q.Get("type"),
		SortBy:          q.Get("sort_by"),
		SortOrder:       q.Get("sort_order"),
	}

	opportunities, err := h.opportunityService.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("Failed to list opportunities", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	items := make([]OpportunityResponse, 0, len(opportunities))
	for _, o := range opportunities {
		items = append(items, decorateOpportunity(o))
	}

	response := OpportunityListResponse{Opportunities: items, Total: len(items)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/opportunities
func (h *OpportunitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeOpportunity(w, r)
	if !ok {
		return
	}

	opportunity, err := h.opportunityService.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create opportunity", zap.String("name", input.Name), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: decorateOpportunity(opportunity)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/opportunities/{id}
func (h *OpportunitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	opportunity, err := h.opportunityService.Get(r.Context(), id)
	if err != nil {
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: decorateOpportunity(opportunity)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/opportunities/{id}
func (h *OpportunitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	input, ok := h.decodeOpportunity(w, r)
	if !ok {
		return
	}

	opportunity, err := h.opportunityService.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("Failed to update opportunity", zap.String("opportunity_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: decorateOpportunity(opportunity)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/opportunities/{id}
func (h *OpportunitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.opportunityService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete opportunity", zap.String("opportunity_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Opportunity deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// LinkDiscoverySession handles PUT /api/opportunities/{id}/discovery-session
func (h *OpportunitiesHandler) LinkDiscoverySession(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req LinkDiscoverySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DiscoverySessionID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "discovery_session_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	sessionID := req.DiscoverySessionID
	if err := h.opportunityService.SetDiscoverySession(r.Context(), id, &sessionID); err != nil {
		h.logger.Error("Failed to link discovery session",
			zap.String("opportunity_id", id.String()),
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Discovery session linked"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UnlinkDiscoverySession handles DELETE /api/opportunities/{id}/discovery-session
func (h *OpportunitiesHandler) UnlinkDiscoverySession(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.opportunityService.SetDiscoverySession(r.Context(), id, nil); err != nil {
		h.logger.Error("Failed to unlink discovery session", zap.String("opportunity_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Discovery session unlinked"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeOpportunity parses and validates the opportunity form body. On
// failure it writes the error response and returns false.
func (h *OpportunitiesHandler) decodeOpportunity(w http.ResponseWriter, r *http.Request) (services.OpportunityInput, bool) {
	var req OpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.OpportunityInput{}, false
	}

	form := forms.NewValue(map[string]string{
		"name":             req.Name,
		"client_name":      req.ClientName,
		"opportunity_type": req.OpportunityType,
		"stage":            req.Stage,
		"estimated_value":  req.EstimatedValue,
	})
	if fieldErrors := forms.OpportunitySchema(req.OpportunityType).Validate(form); len(fieldErrors) > 0 {
		if err := ValidationErrorResponse(w, fieldErrors); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.OpportunityInput{}, false
	}

	return services.OpportunityInput{
		Name:            req.Name,
		ClientName:      req.ClientName,
		Description:     req.Description,
		OpportunityType: req.OpportunityType,
		Stage:           req.Stage,
		EstimatedValue:  forms.ParseOptionalNumber(req.EstimatedValue),
	}, true
}

func decorateOpportunity(o *models.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		Opportunity:           o,
		StageCategory:         models.BadgeCategory(o.OpportunityType, o.Stage),
		EstimatedValueDisplay: views.FormatCurrency(o.EstimatedValue),
	}
}
