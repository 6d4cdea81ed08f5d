package auth_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

type Handler struct {
	AuthService *auth.Service
	Logger      *logger.Logger
}

func NewHandler(authService *auth.Service, log *logger.Logger) *Handler {
	return &Handler{AuthService: authService, Logger: log}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Password, models.RoleUser)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: %v", err))
		utils.WriteServiceError(w, "Registration failed", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Register: created user %s", user.Username))
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("User registered", user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Login: failed for %s: %v", req.Username, err))
		utils.WriteServiceError(w, "Login failed", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Login: user %s authenticated", user.Username))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Login successful", map[string]interface{}{
		"token": token,
		"user":  user,
	}))
}
