package service

import (
	"context"
	"time"

	"stopguard/internal/models"
	"stopguard/internal/repository"
)

// ============ Mock StopLossRepository ============

type MockStopLossRepository struct {
	entries   map[string]*models.StopLossPercent
	getErr    error
	upsertErr error
	deleteErr error
	nextID    int
}

func NewMockStopLossRepository() *MockStopLossRepository {
	return &MockStopLossRepository{
		entries: make(map[string]*models.StopLossPercent),
		nextID:  1,
	}
}

func (m *MockStopLossRepository) GetBySymbol(symbol string) (*models.StopLossPercent, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if sl, exists := m.entries[symbol]; exists {
		return sl, nil
	}
	return nil, repository.ErrStopLossNotFound
}

func (m *MockStopLossRepository) GetAll() ([]*models.StopLossPercent, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.StopLossPercent, 0, len(m.entries))
	for _, sl := range m.entries {
		result = append(result, sl)
	}
	return result, nil
}

func (m *MockStopLossRepository) Upsert(sl *models.StopLossPercent) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if err := sl.Validate(); err != nil {
		return err
	}
	if existing, ok := m.entries[sl.Symbol]; ok {
		sl.ID = existing.ID
	} else {
		sl.ID = m.nextID
		m.nextID++
	}
	m.entries[sl.Symbol] = sl
	return nil
}

func (m *MockStopLossRepository) Delete(symbol string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.entries[symbol]; !exists {
		return repository.ErrStopLossNotFound
	}
	delete(m.entries, symbol)
	return nil
}

// ============ Mock RiskRepository ============

type MockRiskRepository struct {
	rm        *models.RiskManagement
	getErr    error
	updateErr error
}

func NewMockRiskRepository() *MockRiskRepository {
	return &MockRiskRepository{
		rm: &models.RiskManagement{
			ID:                      1,
			FallbackStopLossPercent: 5.0,
			TakeProfitATRMultiplier: 2.0,
			DefaultSellPercent:      100.0,
		},
	}
}

func (m *MockRiskRepository) Get() (*models.RiskManagement, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.rm, nil
}

func (m *MockRiskRepository) Update(rm *models.RiskManagement) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.rm = rm
	return nil
}

// ============ Mock FlagRepository ============

type MockFlagRepository struct {
	flags  map[string]bool
	getErr error
	setErr error
}

func NewMockFlagRepository() *MockFlagRepository {
	return &MockFlagRepository{flags: make(map[string]bool)}
}

func (m *MockFlagRepository) Get(name string) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	return m.flags[name], nil
}

func (m *MockFlagRepository) Set(name string, enabled bool) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.flags[name] = enabled
	return nil
}

func (m *MockFlagRepository) GetAll() ([]*models.GlobalFlag, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.GlobalFlag, 0, len(m.flags))
	for name, enabled := range m.flags {
		result = append(result, &models.GlobalFlag{Name: name, Enabled: enabled})
	}
	return result, nil
}

// ============ Mock SymbolRepository ============

type MockSymbolRepository struct {
	items     map[string]models.AutoBuyTraderConfigItem
	flags     map[string]bool // флаги, записанные вместе с символом
	getErr    error
	upsertErr error
	deleteErr error
}

func NewMockSymbolRepository() *MockSymbolRepository {
	return &MockSymbolRepository{
		items: make(map[string]models.AutoBuyTraderConfigItem),
		flags: make(map[string]bool),
	}
}

func (m *MockSymbolRepository) GetAll() ([]models.AutoBuyTraderConfigItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]models.AutoBuyTraderConfigItem, 0, len(m.items))
	for _, item := range m.items {
		result = append(result, item)
	}
	return result, nil
}

func (m *MockSymbolRepository) TrackedSymbols() ([]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]string, 0, len(m.items))
	for symbol := range m.items {
		result = append(result, symbol)
	}
	return result, nil
}

func (m *MockSymbolRepository) AddTracked(ctx context.Context, item models.AutoBuyTraderConfigItem, autoExitFlag string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.items[item.Symbol] = item
	m.flags[autoExitFlag] = true
	return nil
}

func (m *MockSymbolRepository) RemoveTracked(ctx context.Context, symbol, autoExitFlag string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.items[symbol]; !exists {
		return repository.ErrSymbolNotFound
	}
	delete(m.items, symbol)
	m.flags[autoExitFlag] = false
	return nil
}

// ============ Mock NotificationRepository ============

type MockNotificationRepository struct {
	notifications []*models.Notification
	prefs         *models.NotificationPreferences
	createErr     error
	getErr        error
	prefsErr      error
	nextID        int
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{nextID: 1}
}

func (m *MockNotificationRepository) Create(n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = m.nextID
	m.nextID++
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockNotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > len(m.notifications) {
		limit = len(m.notifications)
	}
	result := make([]*models.Notification, 0, limit)
	for i := len(m.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.notifications[i])
	}
	return result, nil
}

func (m *MockNotificationRepository) DeleteOlderThan(threshold time.Time) (int64, error) {
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

func (m *MockNotificationRepository) GetPreferences() (*models.NotificationPreferences, error) {
	if m.prefsErr != nil {
		return nil, m.prefsErr
	}
	if m.prefs == nil {
		return &models.NotificationPreferences{
			AutoExit:     true,
			StopReached:  true,
			TakeProfit:   true,
			ExternalFill: true,
			APIError:     true,
			ManualSell:   true,
			Pause:        true,
		}, nil
	}
	return m.prefs, nil
}

func (m *MockNotificationRepository) UpdatePreferences(prefs models.NotificationPreferences) error {
	m.prefs = &prefs
	return nil
}

func (m *MockNotificationRepository) byType(notifType string) []*models.Notification {
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.Type == notifType {
			result = append(result, n)
		}
	}
	return result
}

// ============ Mock AccountRepository ============

type MockAccountRepository struct {
	accounts  map[string]*models.ExchangeAccount
	getErr    error
	upsertErr error
	statusErr error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*models.ExchangeAccount)}
}

func (m *MockAccountRepository) GetByName(name string) (*models.ExchangeAccount, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if acc, exists := m.accounts[name]; exists {
		return acc, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) Upsert(acc *models.ExchangeAccount) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.accounts[acc.Name] = acc
	return nil
}

func (m *MockAccountRepository) SetConnectionStatus(name string, connected bool, lastError string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	if acc, exists := m.accounts[name]; exists {
		acc.Connected = connected
		acc.LastError = lastError
	}
	return nil
}

// ============ Mock GuardController ============

type MockGuardController struct {
	statuses map[string]models.SymbolGuardStatus
	sellErr  error
	sells    []string
}

func NewMockGuardController() *MockGuardController {
	return &MockGuardController{statuses: make(map[string]models.SymbolGuardStatus)}
}

func (m *MockGuardController) Statuses(ctx context.Context) []models.SymbolGuardStatus {
	result := make([]models.SymbolGuardStatus, 0, len(m.statuses))
	for _, st := range m.statuses {
		result = append(result, st)
	}
	return result
}

func (m *MockGuardController) Status(ctx context.Context, symbol string) (models.SymbolGuardStatus, bool) {
	st, ok := m.statuses[symbol]
	return st, ok
}

func (m *MockGuardController) ManualSell(ctx context.Context, symbol string, percent float64) error {
	if m.sellErr != nil {
		return m.sellErr
	}
	m.sells = append(m.sells, symbol)
	return nil
}

// ============ Mock WebSocketBroadcaster ============

type MockBroadcaster struct {
	broadcasts []*models.Notification
}

func (m *MockBroadcaster) BroadcastNotification(notif *models.Notification) {
	m.broadcasts = append(m.broadcasts, notif)
}
