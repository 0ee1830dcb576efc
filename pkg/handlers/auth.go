package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/forms"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
)

// CredentialsRequest carries the signup/login form fields.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUserResponse is the account payload returned by auth endpoints.
type AuthUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSessionResponse pairs the account with its access token.
type AuthSessionResponse struct {
	User  AuthUserResponse `json:"user"`
	Token string           `json:"token"`
}

// AuthHandler handles account signup, login, logout and identity lookup.
type AuthHandler struct {
	authService auth.AuthService
	sessions    *auth.SessionStore
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService auth.AuthService, sessions *auth.SessionStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/me", authMiddleware.RequireAuth(h.Me))
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Signup failed", zap.String("email", req.Email), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	h.establishSession(w, r, user, token)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Login failed", zap.String("email", req.Email), zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	h.establishSession(w, r, user, token)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Signed out"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := AuthUserResponse{ID: claims.UserID(), Email: claims.Email}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeCredentials parses and validates the signup/login body. On failure
// it writes the error response and returns false.
func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return CredentialsRequest{}, false
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	form := forms.NewValue(map[string]string{
		"email":    req.Email,
		"password": req.Password,
	})
	if fieldErrors := forms.CredentialsSchema().Validate(form); len(fieldErrors) > 0 {
		if err := ValidationErrorResponse(w, fieldErrors); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return CredentialsRequest{}, false
	}
	return req, true
}

// establishSession saves the session cookie and writes the auth payload.
func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, user *models.User, token string) {
	if err := h.sessions.SaveToken(w, r, token); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err)
		return
	}

	response := AuthSessionResponse{
		User:  AuthUserResponse{ID: user.ID.String(), Email: user.Email},
		Token: token,
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
