package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stopguard/internal/models"
)

// ============ NotificationHandler Tests ============

func TestNotificationHandler_GetNotifications(t *testing.T) {
	t.Run("returns empty list when no notifications", func(t *testing.T) {
		mockSvc := NewMockNotificationService()
		handler := NewNotificationHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		w := httptest.NewRecorder()

		handler.GetNotifications(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response GetNotificationsResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Total != 0 {
			t.Errorf("expected total 0, got %d", response.Total)
		}
		if response.Notifications == nil {
			t.Error("notifications must encode as [] not null")
		}
	})

	t.Run("returns existing notifications", func(t *testing.T) {
		mockSvc := NewMockNotificationService()
		handler := NewNotificationHandler(mockSvc)

		mockSvc.AddNotification(models.NotificationTypeAutoExit, models.SeverityInfo, "exit confirmed BTCUSD")
		mockSvc.AddNotification(models.NotificationTypeStopReached, models.SeverityWarn, "stop hit BTCUSD")
		mockSvc.AddNotification(models.NotificationTypeError, models.SeverityError, "API error")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		w := httptest.NewRecorder()

		handler.GetNotifications(w, req)

		var response GetNotificationsResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Total != 3 {
			t.Errorf("expected total 3, got %d", response.Total)
		}
	})

	t.Run("respects limit parameter", func(t *testing.T) {
		mockSvc := NewMockNotificationService()
		handler := NewNotificationHandler(mockSvc)

		for i := 0; i < 10; i++ {
			mockSvc.AddNotification(models.NotificationTypeError, models.SeverityError, "e")
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=5", nil)
		w := httptest.NewRecorder()

		handler.GetNotifications(w, req)

		var response GetNotificationsResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Total != 5 {
			t.Errorf("expected total 5, got %d", response.Total)
		}
	})
}

func TestNotificationHandler_CleanupNotifications(t *testing.T) {
	t.Run("removes old records", func(t *testing.T) {
		mockSvc := NewMockNotificationService()
		handler := NewNotificationHandler(mockSvc)

		mockSvc.AddNotification(models.NotificationTypeError, models.SeverityError, "old")
		mockSvc.notifications[0].Timestamp = time.Now().Add(-72 * time.Hour)
		mockSvc.AddNotification(models.NotificationTypeError, models.SeverityError, "fresh")

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/notifications?older_than_hours=24", nil)
		w := httptest.NewRecorder()

		handler.CleanupNotifications(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response map[string]int64
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["removed"] != 1 {
			t.Errorf("expected 1 removed, got %d", response["removed"])
		}
	})

	t.Run("rejects invalid older_than_hours", func(t *testing.T) {
		handler := NewNotificationHandler(NewMockNotificationService())

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/notifications?older_than_hours=abc", nil)
		w := httptest.NewRecorder()

		handler.CleanupNotifications(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestNotificationHandler_Preferences(t *testing.T) {
	mockSvc := NewMockNotificationService()
	handler := NewNotificationHandler(mockSvc)

	// GET
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/preferences", nil)
	w := httptest.NewRecorder()
	handler.GetPreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, w.Code)
	}

	var prefs models.NotificationPreferences
	if err := json.NewDecoder(w.Body).Decode(&prefs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !prefs.AutoExit {
		t.Error("expected auto_exit enabled in defaults")
	}

	// PUT
	body := bytes.NewBufferString(`{"auto_exit": false, "stop_reached": true}`)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/notifications/preferences", body)
	w = httptest.NewRecorder()
	handler.UpdatePreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("put: expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockSvc.prefs.AutoExit {
		t.Error("auto_exit must be disabled after update")
	}
	if !mockSvc.prefs.StopReached {
		t.Error("stop_reached must remain enabled")
	}
}
