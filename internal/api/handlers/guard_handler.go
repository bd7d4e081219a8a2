package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"stopguard/internal/service"
)

// GuardHandler отвечает за операции с охраной позиций
//
// Endpoints:
// - GET /api/v1/guards - статусы охраны всех символов
// - GET /api/v1/guards/{symbol} - статус одного символа
// - POST /api/v1/guards/{symbol}/sell - принудительная продажа
// - POST /api/v1/guards/{symbol}/pause - приостановить авто-выход символа
// - POST /api/v1/guards/{symbol}/resume - возобновить авто-выход символа
// - PATCH /api/v1/guards/auto-exit - глобальный переключатель авто-выхода
type GuardHandler struct {
	guardService service.GuardServiceInterface
}

// NewGuardHandler создает новый GuardHandler с внедрением зависимости
func NewGuardHandler(guardService service.GuardServiceInterface) *GuardHandler {
	return &GuardHandler{guardService: guardService}
}

// GetGuards возвращает статусы охраны всех отслеживаемых символов
// GET /api/v1/guards
func (h *GuardHandler) GetGuards(w http.ResponseWriter, r *http.Request) {
	statuses := h.guardService.Statuses(r.Context())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"guards": statuses,
		"total":  len(statuses),
	})
}

// GetGuard возвращает статус охраны одного символа
// GET /api/v1/guards/{symbol}
func (h *GuardHandler) GetGuard(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	status, ok := h.guardService.Status(r.Context(), symbol)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Symbol is not tracked: "+symbol)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// ManualSellRequest представляет запрос принудительной продажи
type ManualSellRequest struct {
	Percent float64 `json:"percent"`
}

// ManualSell принудительно продает охраняемую позицию символа
// POST /api/v1/guards/{symbol}/sell
//
// Body: {"percent": 50} - доля позиции к продаже, по умолчанию 100.
//
// HTTP коды:
// - 200 OK: продажа исполнена и подтверждена биржей
// - 400 Bad Request: невалидный percent
// - 409 Conflict: по символу нет активной охраны
func (h *GuardHandler) ManualSell(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	req := ManualSellRequest{Percent: 100}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
	}
	if req.Percent <= 0 || req.Percent > 100 {
		respondWithError(w, http.StatusBadRequest, "percent must be within (0, 100]")
		return
	}

	if err := h.guardService.ManualSell(r.Context(), symbol, req.Percent); err != nil {
		respondWithError(w, http.StatusConflict, "Manual sell failed: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Position sold"})
}

// PauseGuard приостанавливает авто-выход для символа
// POST /api/v1/guards/{symbol}/pause
func (h *GuardHandler) PauseGuard(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.guardService.PauseSymbol(symbol); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to pause: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Auto exit paused for " + symbol})
}

// ResumeGuard возобновляет авто-выход для символа
// POST /api/v1/guards/{symbol}/resume
func (h *GuardHandler) ResumeGuard(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.guardService.ResumeSymbol(symbol); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resume: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Auto exit resumed for " + symbol})
}

// AutoExitRequest представляет запрос переключения глобального авто-выхода
type AutoExitRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetAutoExit включает или выключает авто-выход глобально
// PATCH /api/v1/guards/auto-exit
//
// Body: {"enabled": true|false}
func (h *GuardHandler) SetAutoExit(w http.ResponseWriter, r *http.Request) {
	var req AutoExitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Enabled == nil {
		respondWithError(w, http.StatusBadRequest, "enabled field is required")
		return
	}

	if err := h.guardService.SetGlobalAutoExit(*req.Enabled); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update flag: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}
