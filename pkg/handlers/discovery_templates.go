package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/forms"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/services"
)

// TemplateRequest carries the discovery template form fields for
// create/update. Section order is preserved.
type TemplateRequest struct {
	Name     string   `json:"name"`
	Sections []string `json:"sections"`
}

// TemplateListResponse for GET /api/discovery-templates
type TemplateListResponse struct {
	Templates []*models.DiscoveryTemplate `json:"templates"`
	Total     int                         `json:"total"`
}

// DiscoveryTemplatesHandler handles discovery template HTTP requests.
type DiscoveryTemplatesHandler struct {
	discoveryService services.DiscoveryService
	logger           *zap.Logger
}

// NewDiscoveryTemplatesHandler creates a new discovery templates handler.
func NewDiscoveryTemplatesHandler(discoveryService services.DiscoveryService, logger *zap.Logger) *DiscoveryTemplatesHandler {
	return &DiscoveryTemplatesHandler{discoveryService: discoveryService, logger: logger}
}

// RegisterRoutes registers the discovery templates routes on the given mux.
func (h *DiscoveryTemplatesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/discovery-templates", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/discovery-templates", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/discovery-templates/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/discovery-templates/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/discovery-templates/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/discovery-templates
func (h *DiscoveryTemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.discoveryService.ListTemplates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list discovery templates", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	response := TemplateListResponse{Templates: templates, Total: len(templates)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/discovery-templates
func (h *DiscoveryTemplatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeTemplate(w, r)
	if !ok {
		return
	}

	template, err := h.discoveryService.CreateTemplate(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create discovery template", zap.String("name", input.Name), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/discovery-templates/{id}
func (h *DiscoveryTemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	template, err := h.discoveryService.GetTemplate(r.Context(), id)
	if err != nil {
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/discovery-templates/{id}
func (h *DiscoveryTemplatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	input, ok := h.decodeTemplate(w, r)
	if !ok {
		return
	}

	template, err := h.discoveryService.UpdateTemplate(r.Context(), id, input)
	if err != nil {
		h.logger.Error("Failed to update discovery template", zap.String("template_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/discovery-templates/{id}. Deleting a template
// still referenced by sessions returns a 409.
func (h *DiscoveryTemplatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.discoveryService.DeleteTemplate(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete discovery template", zap.String("template_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Template deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeTemplate parses and validates the template form body. On failure it
// writes the error response and returns false.
func (h *DiscoveryTemplatesHandler) decodeTemplate(w http.ResponseWriter, r *http.Request) (services.TemplateInput, bool) {
	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.TemplateInput{}, false
	}

	form := forms.NewValue(map[string]string{"name": req.Name})
	if fieldErrors := forms.TemplateSchema().Validate(form); len(fieldErrors) > 0 {
		if err := ValidationErrorResponse(w, fieldErrors); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.TemplateInput{}, false
	}

	return services.TemplateInput{Name: req.Name, Sections: req.Sections}, true
}
