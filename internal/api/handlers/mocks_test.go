package handlers

import (
	"context"
	"errors"
	"time"

	"stopguard/internal/models"
	"stopguard/internal/repository"
)

// ============ Mock GuardService ============

type MockGuardService struct {
	statuses   map[string]models.SymbolGuardStatus
	sellErr    error
	pauseErr   error
	flagErr    error
	soldSymbol string
	soldPct    float64
	globalFlag *bool
	paused     []string
	resumed    []string
}

func NewMockGuardService() *MockGuardService {
	return &MockGuardService{statuses: make(map[string]models.SymbolGuardStatus)}
}

func (m *MockGuardService) Statuses(ctx context.Context) []models.SymbolGuardStatus {
	result := make([]models.SymbolGuardStatus, 0, len(m.statuses))
	for _, st := range m.statuses {
		result = append(result, st)
	}
	return result
}

func (m *MockGuardService) Status(ctx context.Context, symbol string) (models.SymbolGuardStatus, bool) {
	st, ok := m.statuses[symbol]
	return st, ok
}

func (m *MockGuardService) ManualSell(ctx context.Context, symbol string, percent float64) error {
	if m.sellErr != nil {
		return m.sellErr
	}
	m.soldSymbol = symbol
	m.soldPct = percent
	return nil
}

func (m *MockGuardService) PauseSymbol(symbol string) error {
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.paused = append(m.paused, symbol)
	return nil
}

func (m *MockGuardService) ResumeSymbol(symbol string) error {
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.resumed = append(m.resumed, symbol)
	return nil
}

func (m *MockGuardService) SetGlobalAutoExit(enabled bool) error {
	if m.flagErr != nil {
		return m.flagErr
	}
	m.globalFlag = &enabled
	return nil
}

// ============ Mock RiskService ============

type MockRiskService struct {
	rm        *models.RiskManagement
	stopLoss  map[string]*models.StopLossPercent
	getErr    error
	updateErr error
	nextID    int
}

func NewMockRiskService() *MockRiskService {
	return &MockRiskService{
		rm: &models.RiskManagement{
			ID:                      1,
			FallbackStopLossPercent: 5,
			TakeProfitATRMultiplier: 2,
			DefaultSellPercent:      100,
		},
		stopLoss: make(map[string]*models.StopLossPercent),
		nextID:   1,
	}
}

func (m *MockRiskService) GetRiskManagement() (*models.RiskManagement, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.rm, nil
}

func (m *MockRiskService) UpdateRiskManagement(rm *models.RiskManagement) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if rm.FallbackStopLossPercent <= 0 || rm.FallbackStopLossPercent > 100 {
		return errors.New("fallback_stop_loss_percent out of range")
	}
	m.rm = rm
	return nil
}

func (m *MockRiskService) ListStopLoss() ([]*models.StopLossPercent, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.StopLossPercent, 0, len(m.stopLoss))
	for _, sl := range m.stopLoss {
		result = append(result, sl)
	}
	return result, nil
}

func (m *MockRiskService) SetStopLoss(symbol string, percent float64) (*models.StopLossPercent, error) {
	sl := &models.StopLossPercent{ID: m.nextID, Symbol: symbol, Percent: percent}
	if err := sl.Validate(); err != nil {
		return nil, err
	}
	m.nextID++
	m.stopLoss[symbol] = sl
	return sl, nil
}

func (m *MockRiskService) DeleteStopLoss(symbol string) error {
	if _, exists := m.stopLoss[symbol]; !exists {
		return repository.ErrStopLossNotFound
	}
	delete(m.stopLoss, symbol)
	return nil
}

// ============ Mock NotificationService ============

type MockNotificationService struct {
	notifications []*models.Notification
	prefs         models.NotificationPreferences
	getErr        error
	nextID        int
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{
		prefs:  models.NotificationPreferences{AutoExit: true, StopReached: true},
		nextID: 1,
	}
}

func (m *MockNotificationService) AddNotification(notifType, severity, message string) {
	m.notifications = append(m.notifications, &models.Notification{
		ID:        m.nextID,
		Timestamp: time.Now().UTC(),
		Type:      notifType,
		Severity:  severity,
		Message:   message,
	})
	m.nextID++
}

func (m *MockNotificationService) GetRecent(limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > len(m.notifications) {
		limit = len(m.notifications)
	}
	return m.notifications[:limit], nil
}

func (m *MockNotificationService) CleanupOlderThan(age time.Duration) (int64, error) {
	threshold := time.Now().Add(-age)
	kept := m.notifications[:0]
	var removed int64
	for _, n := range m.notifications {
		if n.Timestamp.Before(threshold) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return removed, nil
}

func (m *MockNotificationService) GetPreferences() (*models.NotificationPreferences, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	prefs := m.prefs
	return &prefs, nil
}

func (m *MockNotificationService) UpdatePreferences(prefs models.NotificationPreferences) error {
	m.prefs = prefs
	return nil
}

// ============ Mock SymbolService ============

type MockSymbolService struct {
	items  map[string]models.AutoBuyTraderConfigItem
	getErr error
}

func NewMockSymbolService() *MockSymbolService {
	return &MockSymbolService{items: make(map[string]models.AutoBuyTraderConfigItem)}
}

func (m *MockSymbolService) List() ([]models.AutoBuyTraderConfigItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]models.AutoBuyTraderConfigItem, 0, len(m.items))
	for _, item := range m.items {
		result = append(result, item)
	}
	return result, nil
}

func (m *MockSymbolService) Add(ctx context.Context, symbol string, fiatWalletPercent float64) (models.AutoBuyTraderConfigItem, error) {
	item, err := models.NewAutoBuyTraderConfigItem(symbol, fiatWalletPercent)
	if err != nil {
		return models.AutoBuyTraderConfigItem{}, err
	}
	m.items[item.Symbol] = item
	return item, nil
}

func (m *MockSymbolService) Remove(ctx context.Context, symbol string) error {
	if _, exists := m.items[symbol]; !exists {
		return repository.ErrSymbolNotFound
	}
	delete(m.items, symbol)
	return nil
}
