package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"stopguard/internal/models"
	"stopguard/internal/repository"
	"stopguard/internal/service"
)

// SymbolHandler отвечает за список отслеживаемых символов
//
// Endpoints:
// - GET /api/v1/symbols - список отслеживаемых символов
// - POST /api/v1/symbols - добавить символ в отслеживание
// - DELETE /api/v1/symbols/{symbol} - убрать символ из отслеживания
type SymbolHandler struct {
	symbolService service.SymbolServiceInterface
}

// NewSymbolHandler создает новый SymbolHandler с внедрением зависимости
func NewSymbolHandler(symbolService service.SymbolServiceInterface) *SymbolHandler {
	return &SymbolHandler{symbolService: symbolService}
}

// GetSymbols возвращает все отслеживаемые символы
// GET /api/v1/symbols
func (h *SymbolHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	items, err := h.symbolService.List()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list symbols: "+err.Error())
		return
	}
	if items == nil {
		items = []models.AutoBuyTraderConfigItem{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// AddSymbolRequest представляет запрос добавления символа
type AddSymbolRequest struct {
	Symbol                    string  `json:"symbol"`
	FiatWalletPercentAssigned float64 `json:"fiat_wallet_percent_assigned"`
}

// AddSymbol добавляет символ в отслеживание
// POST /api/v1/symbols
func (h *SymbolHandler) AddSymbol(w http.ResponseWriter, r *http.Request) {
	var req AddSymbolRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	item, err := h.symbolService.Add(r.Context(), req.Symbol, req.FiatWalletPercentAssigned)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

// RemoveSymbol убирает символ из отслеживания
// DELETE /api/v1/symbols/{symbol}
func (h *SymbolHandler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.symbolService.Remove(r.Context(), symbol); err != nil {
		if errors.Is(err, repository.ErrSymbolNotFound) {
			respondWithError(w, http.StatusNotFound, "Symbol is not tracked: "+symbol)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to remove symbol: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
