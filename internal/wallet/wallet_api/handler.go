package wallet_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"
	"ms-booking/internal/wallet"
)

type Handler struct {
	Wallet *wallet.Wallet
	Logger *logger.Logger
}

func NewHandler(w *wallet.Wallet, log *logger.Logger) *Handler {
	return &Handler{Wallet: w, Logger: log}
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Deposit: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	balance, err := h.Wallet.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Deposit: user=%d: %v", userID, err))
		utils.WriteServiceError(w, "Deposit failed", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Deposit: user=%d amount=%s balance=%s", userID, req.Amount, balance))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Deposit successful", map[string]interface{}{
		"balance": balance,
	}))
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	balance, err := h.Wallet.Balance(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Balance: user=%d: %v", userID, err))
		utils.WriteServiceError(w, "Could not load balance", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Balance", map[string]interface{}{
		"balance": balance,
	}))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	transactions, err := h.Wallet.History(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("History: user=%d: %v", userID, err))
		utils.WriteServiceError(w, "Could not load transactions", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Transactions", transactions))
}
