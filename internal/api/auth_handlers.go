package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/example/ems-custody/internal/api/middleware"
	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/auth"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	entities   store.EntityStore
	jwtService *auth.JWTService
	ledger     *audit.Ledger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(entities store.EntityStore, jwtService *auth.JWTService, ledger *audit.Ledger) *AuthHandlers {
	return &AuthHandlers{
		entities:   entities,
		jwtService: jwtService,
		ledger:     ledger,
	}
}

// LoginRequest represents the login request body. ServiceID is optional when
// the user belongs to exactly one service.
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	ServiceID string `json:"service_id,omitempty"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ServiceID string    `json:"service_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Login authenticates a user and issues token cookies scoped to one service.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, exists := h.findUserByEmail(req.Email)
	if !exists {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !user.IsActive {
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	membership, ok := h.pickMembership(user.ID, req.ServiceID)
	if !ok {
		respondJSONError(w, "No active service membership", http.StatusForbidden)
		return
	}

	h.setAuthCookies(w, r, user, membership)

	// Best-effort: a ledger failure must not block login.
	_, _ = h.ledger.Record(r.Context(), membership.ServiceID, user.ID,
		audit.EventUserLogin, audit.EntityUser, user.ID, "login from "+r.RemoteAddr)

	respondJSON(w, http.StatusOK, AuthResponse{
		User:    userResponse(user, membership),
		Message: "Login successful",
	})
}

// Logout clears auth cookies and records the logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		_, _ = h.ledger.Record(r.Context(), claims.ServiceID, claims.UserID,
			audit.EventUserLogout, audit.EntityUser, claims.UserID, "logout")
	}

	h.clearAuthCookies(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// service_id cookie set at login carries the active service across refreshes.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	serviceCookie, err := r.Cookie("service_id")
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "No service context", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	userData, exists := h.entities.Get(store.CollUsers, userID)
	if !exists {
		h.clearAuthCookies(w)
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}
	user := userData.(*entity.User)
	if !user.IsActive {
		h.clearAuthCookies(w)
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	membership, ok := h.pickMembership(user.ID, serviceCookie.Value)
	if !ok {
		h.clearAuthCookies(w)
		respondJSONError(w, "Membership no longer active", http.StatusForbidden)
		return
	}

	h.setAuthCookies(w, r, user, membership)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Token refreshed",
	})
}

// SwitchServiceRequest selects another service the user belongs to.
type SwitchServiceRequest struct {
	ServiceID string `json:"service_id"`
}

// SwitchService reissues tokens scoped to a different active membership.
func (h *AuthHandlers) SwitchService(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SwitchServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ServiceID == "" {
		respondJSONError(w, "service_id is required", http.StatusBadRequest)
		return
	}

	userData, exists := h.entities.Get(store.CollUsers, claims.UserID)
	if !exists {
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}
	user := userData.(*entity.User)

	membership, ok := h.pickMembership(user.ID, req.ServiceID)
	if !ok {
		respondJSONError(w, "No active membership in that service", http.StatusForbidden)
		return
	}

	h.setAuthCookies(w, r, user, membership)

	_, _ = h.ledger.Record(r.Context(), membership.ServiceID, user.ID,
		audit.EventServiceSwitch, audit.EntityUser, user.ID,
		"switched from service "+claims.ServiceID)

	respondJSON(w, http.StatusOK, AuthResponse{
		User:    userResponse(user, membership),
		Message: "Service switched",
	})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userData, exists := h.entities.Get(store.CollUsers, claims.UserID)
	if !exists {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	user := userData.(*entity.User)

	respondJSON(w, http.StatusOK, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		ServiceID: claims.ServiceID,
		Role:      claims.Role,
		CreatedAt: user.CreatedAt,
	})
}

// Helper methods

func (h *AuthHandlers) findUserByEmail(email string) (*entity.User, bool) {
	email = strings.TrimSpace(email)
	for _, raw := range h.entities.GetAll(store.CollUsers) {
		user, ok := raw.(*entity.User)
		if !ok {
			continue
		}
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return nil, false
}

// pickMembership returns the user's active membership in serviceID, or any
// active membership when serviceID is empty.
func (h *AuthHandlers) pickMembership(userID, serviceID string) (*entity.ServiceMembership, bool) {
	for _, raw := range h.entities.GetAll(store.CollServiceMemberships) {
		m, ok := raw.(*entity.ServiceMembership)
		if !ok || !m.IsActive || m.UserID != userID {
			continue
		}
		if serviceID == "" || m.ServiceID == serviceID {
			return m, true
		}
	}
	return nil, false
}

func userResponse(user *entity.User, membership *entity.ServiceMembership) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		ServiceID: membership.ServiceID,
		Role:      string(membership.Role),
		CreatedAt: user.CreatedAt,
	}
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, user *entity.User, membership *entity.ServiceMembership) {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(
		user.ID, user.Email, membership.ServiceID, string(membership.Role))
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(user.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/api/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "service_id",
		Value:    membership.ServiceID,
		Path:     "/",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "service_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
