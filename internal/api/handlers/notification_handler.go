package handlers

import (
	"net/http"
	"strconv"
	"time"

	"stopguard/internal/models"
	"stopguard/internal/service"
)

// NotificationHandler отвечает за журнал событий охраны
//
// Endpoints:
// - GET /api/v1/notifications - получение журнала (новые сверху)
// - GET /api/v1/notifications?limit=50 - с ограничением количества
// - DELETE /api/v1/notifications?older_than_hours=24 - очистка старых записей
// - GET /api/v1/notifications/preferences - настройки типов уведомлений
// - PUT /api/v1/notifications/preferences - обновление настроек
type NotificationHandler struct {
	notificationService service.NotificationServiceInterface
}

// NewNotificationHandler создает новый NotificationHandler с внедрением зависимости
func NewNotificationHandler(notificationService service.NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetNotificationsResponse представляет ответ списка уведомлений
type GetNotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int                    `json:"total"`
}

// GetNotifications возвращает журнал событий
//
// GET /api/v1/notifications
//
// Query параметры:
// - limit (int): количество записей (по умолчанию 100, максимум 500)
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.notificationService.GetRecent(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get notifications: "+err.Error())
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}

	respondWithJSON(w, http.StatusOK, GetNotificationsResponse{
		Notifications: notifications,
		Total:         len(notifications),
	})
}

// CleanupNotifications удаляет записи старше заданного возраста
//
// DELETE /api/v1/notifications?older_than_hours=24
//
// По умолчанию удаляются записи старше 30 дней.
func (h *NotificationHandler) CleanupNotifications(w http.ResponseWriter, r *http.Request) {
	age := 30 * 24 * time.Hour
	if hoursParam := r.URL.Query().Get("older_than_hours"); hoursParam != "" {
		hours, err := strconv.Atoi(hoursParam)
		if err != nil || hours <= 0 {
			respondWithError(w, http.StatusBadRequest, "older_than_hours must be a positive integer")
			return
		}
		age = time.Duration(hours) * time.Hour
	}

	removed, err := h.notificationService.CleanupOlderThan(age)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to cleanup notifications: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// GetPreferences возвращает настройки типов уведомлений
// GET /api/v1/notifications/preferences
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.notificationService.GetPreferences()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get preferences: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences обновляет настройки типов уведомлений
// PUT /api/v1/notifications/preferences
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.NotificationPreferences
	if err := decodeJSON(r, &prefs); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.notificationService.UpdatePreferences(prefs); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update preferences: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, prefs)
}
