package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jonathan/trustcheck/internal/config"
	"github.com/jonathan/trustcheck/internal/types"
)

// AuthHandler handles admin authentication requests.
type AuthHandler struct {
	passwords    *config.PasswordConfig
	passwordHash string
	jwtService   *JWTService
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler that checks passwords against
// passwordHash. An empty hash disables admin login.
func NewAuthHandler(passwords *config.PasswordConfig, passwordHash string, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		passwords:    passwords,
		passwordHash: passwordHash,
		jwtService:   jwtService,
		logger:       slog.With("component", "auth"),
	}
}

// Login exchanges the admin password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.authenticate(req.Password); err != nil {
		h.logger.Warn("[Auth] admin login rejected",
			slog.String("remote", r.RemoteAddr),
			slog.String("reason", err.Error()))
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(RoleAdmin)
	if err != nil {
		h.logger.Error("[Auth] failed to generate token", slog.String("error", err.Error()))
		errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, types.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (h *AuthHandler) authenticate(password string) error {
	if h.passwordHash == "" || h.jwtService == nil {
		return &ErrAdminDisabled{}
	}
	if !h.passwords.VerifyPassword(password, h.passwordHash) {
		return &ErrInvalidCredentials{}
	}
	return nil
}
