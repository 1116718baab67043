package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lectura/core/auth"
	"lectura/logger"
	"lectura/model"
	"lectura/repository"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.userRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "Auth is not available")
		return
	}

	var req struct {
		Username string `json:"username"` // username or email
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username/Email and password are required")
		return
	}

	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}
	if err != nil {
		logger.Error("failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("login succeeded", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if h.userRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "Auth is not available")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			writeError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		logger.Error("failed to create user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       userID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// CurrentUserHandler reports the logged-in user, mirroring session checks in
// the web UI.
func (h *APIHandler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || h.userRepo == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"logged_in": false})
		return
	}

	user, err := h.userRepo.GetUserByID(claims.UserID)
	if err != nil || user == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"logged_in": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": true,
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
	})
}

// OptionalAuthMiddleware attaches claims when a valid token is present but
// lets anonymous requests through. Every endpoint works without a login;
// identity only enriches feedback and the user endpoint.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, err := claimsFromRequest(r); err == nil {
			r = r.WithContext(contextWithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	}
}

func claimsFromRequest(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("Invalid authorization header format")
	}

	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return nil, errors.New("Invalid token")
	}
	return claims, nil
}

func contextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts auth claims from the request context, or nil
// for anonymous requests.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}
