package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"stopguard/internal/repository"
	"stopguard/internal/service"
)

// AccountHandler отвечает за учетные данные биржевых аккаунтов
//
// Endpoints:
// - GET /api/v1/accounts/{name} - статус аккаунта (без ключей)
// - PUT /api/v1/accounts/{name} - сохранить API ключи
//
// Ключи шифруются на стороне сервиса и никогда не возвращаются в ответах.
type AccountHandler struct {
	accountService service.AccountServiceInterface
}

// NewAccountHandler создает новый AccountHandler с внедрением зависимости
func NewAccountHandler(accountService service.AccountServiceInterface) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// GetAccount возвращает статус подключения аккаунта
// GET /api/v1/accounts/{name}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	acc, err := h.accountService.GetAccount(name)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found: "+name)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get account: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, acc)
}

// SaveCredentialsRequest представляет запрос сохранения API ключей
type SaveCredentialsRequest struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}

// SaveCredentials сохраняет зашифрованные API ключи аккаунта
// PUT /api/v1/accounts/{name}
func (h *AccountHandler) SaveCredentials(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req SaveCredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.accountService.SaveCredentials(name, req.APIKey, req.SecretKey); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to save credentials: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Credentials saved"})
}
