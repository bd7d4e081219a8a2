package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"stopguard/internal/models"
	"stopguard/internal/repository"
	"stopguard/internal/service"
)

// RiskHandler отвечает за управление риск-настройками
//
// Endpoints:
// - GET /api/v1/risk - глобальные риск-настройки
// - PATCH /api/v1/risk - обновить глобальные настройки
// - GET /api/v1/stop-loss - все персональные stop-loss проценты
// - PUT /api/v1/stop-loss/{symbol} - задать персональный процент
// - DELETE /api/v1/stop-loss/{symbol} - вернуть символ к fallback
type RiskHandler struct {
	riskService service.RiskServiceInterface
}

// NewRiskHandler создает новый RiskHandler с внедрением зависимости
func NewRiskHandler(riskService service.RiskServiceInterface) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// GetRiskManagement возвращает глобальные риск-настройки
// GET /api/v1/risk
func (h *RiskHandler) GetRiskManagement(w http.ResponseWriter, r *http.Request) {
	rm, err := h.riskService.GetRiskManagement()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get risk management: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, rm)
}

// UpdateRiskRequest представляет частичное обновление риск-настроек
type UpdateRiskRequest struct {
	FallbackStopLossPercent *float64 `json:"fallback_stop_loss_percent,omitempty"`
	TakeProfitATRMultiplier *float64 `json:"take_profit_atr_multiplier,omitempty"`
	DefaultSellPercent      *float64 `json:"default_sell_percent,omitempty"`
}

// UpdateRiskManagement обновляет глобальные риск-настройки
// PATCH /api/v1/risk
//
// Поля, отсутствующие в body, сохраняют текущие значения.
func (h *RiskHandler) UpdateRiskManagement(w http.ResponseWriter, r *http.Request) {
	var req UpdateRiskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	rm, err := h.riskService.GetRiskManagement()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get risk management: "+err.Error())
		return
	}

	if req.FallbackStopLossPercent != nil {
		rm.FallbackStopLossPercent = *req.FallbackStopLossPercent
	}
	if req.TakeProfitATRMultiplier != nil {
		rm.TakeProfitATRMultiplier = *req.TakeProfitATRMultiplier
	}
	if req.DefaultSellPercent != nil {
		rm.DefaultSellPercent = *req.DefaultSellPercent
	}

	if err := h.riskService.UpdateRiskManagement(rm); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, rm)
}

// GetStopLossList возвращает все персональные stop-loss настройки
// GET /api/v1/stop-loss
func (h *RiskHandler) GetStopLossList(w http.ResponseWriter, r *http.Request) {
	list, err := h.riskService.ListStopLoss()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list stop loss: "+err.Error())
		return
	}
	if list == nil {
		list = []*models.StopLossPercent{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

// SetStopLossRequest представляет запрос установки персонального процента
type SetStopLossRequest struct {
	Percent float64 `json:"percent"`
}

// SetStopLoss задает персональный stop-loss процент для символа
// PUT /api/v1/stop-loss/{symbol}
func (h *RiskHandler) SetStopLoss(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	var req SetStopLossRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	sl, err := h.riskService.SetStopLoss(symbol, req.Percent)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, sl)
}

// DeleteStopLoss удаляет персональный процент; символ возвращается к fallback
// DELETE /api/v1/stop-loss/{symbol}
func (h *RiskHandler) DeleteStopLoss(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.riskService.DeleteStopLoss(symbol); err != nil {
		if errors.Is(err, repository.ErrStopLossNotFound) {
			respondWithError(w, http.StatusNotFound, "No personal stop loss for "+symbol)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
