package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"stopguard/internal/models"
)

// ============ RiskHandler Tests ============

func TestRiskHandler_GetRiskManagement(t *testing.T) {
	handler := NewRiskHandler(NewMockRiskService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk", nil)
	w := httptest.NewRecorder()

	handler.GetRiskManagement(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var rm models.RiskManagement
	if err := json.NewDecoder(w.Body).Decode(&rm); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rm.FallbackStopLossPercent != 5 {
		t.Errorf("expected fallback 5, got %v", rm.FallbackStopLossPercent)
	}
}

func TestRiskHandler_UpdateRiskManagement(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := bytes.NewBufferString(`{"fallback_stop_loss_percent": 7.5}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk", body)
		w := httptest.NewRecorder()

		handler.UpdateRiskManagement(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if mockSvc.rm.FallbackStopLossPercent != 7.5 {
			t.Errorf("expected fallback 7.5, got %v", mockSvc.rm.FallbackStopLossPercent)
		}
		if mockSvc.rm.TakeProfitATRMultiplier != 2 {
			t.Errorf("untouched field changed: %v", mockSvc.rm.TakeProfitATRMultiplier)
		}
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		handler := NewRiskHandler(NewMockRiskService())

		body := bytes.NewBufferString(`{"fallback_stop_loss_percent": 150}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk", body)
		w := httptest.NewRecorder()

		handler.UpdateRiskManagement(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestRiskHandler_StopLossCRUD(t *testing.T) {
	mockSvc := NewMockRiskService()
	handler := NewRiskHandler(mockSvc)

	// PUT
	body := bytes.NewBufferString(`{"percent": 3.5}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stop-loss/BTCUSD", body)
	req = mux.SetURLVars(req, map[string]string{"symbol": "BTCUSD"})
	w := httptest.NewRecorder()
	handler.SetStopLoss(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("set: expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// GET list
	req = httptest.NewRequest(http.MethodGet, "/api/v1/stop-loss", nil)
	w = httptest.NewRecorder()
	handler.GetStopLossList(w, req)

	var list []*models.StopLossPercent
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 1 || list[0].Percent != 3.5 {
		t.Errorf("unexpected list %+v", list)
	}

	// DELETE
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/stop-loss/BTCUSD", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "BTCUSD"})
	w = httptest.NewRecorder()
	handler.DeleteStopLoss(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("delete: expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	// DELETE повторно - 404
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/stop-loss/BTCUSD", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "BTCUSD"})
	w = httptest.NewRecorder()
	handler.DeleteStopLoss(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("repeat delete: expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRiskHandler_SetStopLoss_Invalid(t *testing.T) {
	handler := NewRiskHandler(NewMockRiskService())

	body := bytes.NewBufferString(`{"percent": 0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stop-loss/BTCUSD", body)
	req = mux.SetURLVars(req, map[string]string{"symbol": "BTCUSD"})
	w := httptest.NewRecorder()

	handler.SetStopLoss(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
