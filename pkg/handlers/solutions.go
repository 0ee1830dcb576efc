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

// SolutionRequest carries the solution form fields for create/update.
type SolutionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PainPoints  *string `json:"pain_points,omitempty"`
}

// SolutionListResponse for GET /api/solutions
type SolutionListResponse struct {
	Solutions []*models.Solution `json:"solutions"`
	Total     int                `json:"total"`
}

// SolutionsHandler handles solution catalog HTTP requests.
type SolutionsHandler struct {
	solutionService services.SolutionService
	logger          *zap.Logger
}

// NewSolutionsHandler creates a new solutions handler.
func NewSolutionsHandler(solutionService services.SolutionService, logger *zap.Logger) *SolutionsHandler {
	return &SolutionsHandler{solutionService: solutionService, logger: logger}
}

// RegisterRoutes registers the solutions handler's routes on the given mux.
func (h *SolutionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/solutions", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/solutions", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/solutions/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/solutions/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/solutions/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/solutions/{id}/archive", authMiddleware.RequireAuth(h.Archive))
	mux.HandleFunc("POST /api/solutions/{id}/activate", authMiddleware.RequireAuth(h.Activate))
}

// List handles GET /api/solutions with an optional picker search query ?q=.
func (h *SolutionsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	solutions, err := h.solutionService.List(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list solutions", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	response := SolutionListResponse{Solutions: solutions, Total: len(solutions)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/solutions
func (h *SolutionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeSolution(w, r)
	if !ok {
		return
	}

	solution, err := h.solutionService.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create solution", zap.String("name", input.Name), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: solution}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/solutions/{id}
func (h *SolutionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	solution, err := h.solutionService.Get(r.Context(), id)
	if err != nil {
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: solution}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/solutions/{id}
func (h *SolutionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	input, ok := h.decodeSolution(w, r)
	if !ok {
		return
	}

	solution, err := h.solutionService.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("Failed to update solution", zap.String("solution_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: solution}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/solutions/{id}
func (h *SolutionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.solutionService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete solution", zap.String("solution_id", id.String()), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Solution deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Archive handles POST /api/solutions/{id}/archive
func (h *SolutionsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "Solution archived")
}

// Activate handles POST /api/solutions/{id}/activate
func (h *SolutionsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "Solution activated")
}

func (h *SolutionsHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.solutionService.SetActive(r.Context(), id, active); err != nil {
		h.logger.Error("Failed to toggle solution",
			zap.String("solution_id", id.String()),
			zap.Bool("active", active),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: message}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeSolution parses and validates the solution form body. On failure it
// writes the error response and returns false.
func (h *SolutionsHandler) decodeSolution(w http.ResponseWriter, r *http.Request) (services.SolutionInput, bool) {
	var req SolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.SolutionInput{}, false
	}

	form := forms.NewValue(map[string]string{"name": req.Name})
	if fieldErrors := forms.SolutionSchema().Validate(form); len(fieldErrors) > 0 {
		if err := ValidationErrorResponse(w, fieldErrors); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return services.SolutionInput{}, false
	}

	return services.SolutionInput{
		Name:        req.Name,
		Description: req.Description,
		PainPoints:  req.PainPoints,
	}, true
}
