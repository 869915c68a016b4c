package handlers

import (
	"errors"
	"net/http"
	"time"

	"dactylogame/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Register creates a new account and logs it in immediately
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	_, token, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		var vErr service.ValidationError
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			respondWithError(w, http.StatusBadRequest, "This username is already taken", "", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondWithError(w, http.StatusBadRequest, "This email is already in use", "", nil)
		case errors.As(err, &vErr):
			respondWithError(w, http.StatusBadRequest, vErr.Error(), "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", "Registration failed", err)
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Login authenticates an existing account
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	_, token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondWithError(w, http.StatusUnauthorized, "Incorrect username or password", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Login failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the authenticated user's account details
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
