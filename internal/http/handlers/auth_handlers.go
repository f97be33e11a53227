package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"parktrack/internal/service"
)

// AuthHandlers serves signup and login.
type AuthHandlers struct {
	svc    *service.AuthService
	logger *zap.Logger
}

// NewAuthHandlers builds handler set.
func NewAuthHandlers(svc *service.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{svc: svc, logger: logger}
}

type signupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	DriverID      string `json:"driver_id"`
	Tier          string `json:"tier"`
	VehicleNumber string `json:"vehicle_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup handles POST /auth/signup.
func (h *AuthHandlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.svc.Signup(r.Context(), service.SignupInput{
		Email:         req.Email,
		Password:      req.Password,
		FullName:      req.FullName,
		Role:          req.Role,
		DriverID:      req.DriverID,
		Tier:          req.Tier,
		VehicleNumber: req.VehicleNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailInUse) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to sign up")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}
