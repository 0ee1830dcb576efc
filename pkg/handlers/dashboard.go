package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/services"
)

// DashboardHandler serves the pipeline summary shown on the dashboard.
type DashboardHandler struct {
	opportunityService services.OpportunityService
	logger             *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(opportunityService services.OpportunityService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{opportunityService: opportunityService, logger: logger}
}

// RegisterRoutes registers the dashboard handler's routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboard", authMiddleware.RequireAuth(h.Summary))
}

// Summary handles GET /api/dashboard. Counts cover the whole collection,
// independent of any list filters the browser currently has active.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.opportunityService.Summary(r.Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard summary", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
