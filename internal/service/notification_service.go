package service

import (
	"log"
	"strings"
	"time"

	"stopguard/internal/models"
)

// WebSocketBroadcaster - интерфейс для отправки WebSocket сообщений
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type WebSocketBroadcaster interface {
	BroadcastNotification(notif *models.Notification)
}

// NotificationService предоставляет бизнес-логику для управления уведомлениями.
//
// Отвечает за:
// - Создание уведомлений с проверкой настроек
// - Получение журнала уведомлений
// - Очистку старых записей
// - Broadcast уведомлений через WebSocket
type NotificationService struct {
	repo  NotificationRepositoryInterface
	wsHub WebSocketBroadcaster
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo NotificationRepositoryInterface) *NotificationService {
	return &NotificationService{repo: repo}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast уведомлений.
//
// Вызывается после инициализации Hub в main.go:
//
//	notifService := service.NewNotificationService(notifRepo)
//	notifService.SetWebSocketHub(wsHub)
func (s *NotificationService) SetWebSocketHub(hub WebSocketBroadcaster) {
	s.wsHub = hub
}

// CreateNotification создает новое уведомление.
//
// Перед созданием проверяет настройки уведомлений. Если данный тип
// отключен в настройках, уведомление не создается.
//
// После успешного создания отправляет broadcast через WebSocket (если hub настроен).
func (s *NotificationService) CreateNotification(notif *models.Notification) error {
	enabled, err := s.isNotificationTypeEnabled(notif.Type)
	if err != nil {
		// При ошибке получения настроек все равно создаем уведомление
		// (fail-safe: лучше уведомить, чем пропустить важное событие)
	} else if !enabled {
		return nil
	}

	if err := s.repo.Create(notif); err != nil {
		return err
	}

	// Broadcast через WebSocket hub для real-time обновления UI
	if s.wsHub != nil {
		s.wsHub.BroadcastNotification(notif)
	}

	return nil
}

// Publish - адаптер под сигнатуру guard.NotifyFunc.
//
// Координатор выхода шлёт уведомления fire-and-forget; ошибка
// сохранения не должна прерывать исполнение автоматической продажи.
func (s *NotificationService) Publish(notif *models.Notification) {
	if err := s.CreateNotification(notif); err != nil {
		log.Printf("notification: create %s failed: %v", notif.Type, err)
	}
}

// GetRecent возвращает последние уведомления (новые сверху)
func (s *NotificationService) GetRecent(limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.GetRecent(limit)
}

// CleanupOlderThan удаляет уведомления старше заданного возраста.
// Возвращает количество удалённых записей.
func (s *NotificationService) CleanupOlderThan(age time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(time.Now().Add(-age))
}

// GetPreferences возвращает настройки типов уведомлений
func (s *NotificationService) GetPreferences() (*models.NotificationPreferences, error) {
	return s.repo.GetPreferences()
}

// UpdatePreferences сохраняет настройки типов уведомлений
func (s *NotificationService) UpdatePreferences(prefs models.NotificationPreferences) error {
	return s.repo.UpdatePreferences(prefs)
}

// isNotificationTypeEnabled проверяет, включен ли тип уведомлений в настройках.
func (s *NotificationService) isNotificationTypeEnabled(notifType string) (bool, error) {
	prefs, err := s.repo.GetPreferences()
	if err != nil {
		return true, err // При ошибке считаем включенным
	}

	if prefs == nil {
		return true, nil
	}

	// Маппинг типов уведомлений на поля настроек
	switch strings.ToUpper(notifType) {
	case models.NotificationTypeAutoExit:
		return prefs.AutoExit, nil
	case models.NotificationTypeStopReached:
		return prefs.StopReached, nil
	case models.NotificationTypeTakeProfit:
		return prefs.TakeProfit, nil
	case models.NotificationTypeExternalFill:
		return prefs.ExternalFill, nil
	case models.NotificationTypeError:
		return prefs.APIError, nil
	case models.NotificationTypeManualSell:
		return prefs.ManualSell, nil
	case models.NotificationTypePause:
		return prefs.Pause, nil
	default:
		// Неизвестный тип - считаем включенным
		return true, nil
	}
}

// CreateManualSellNotification создает уведомление о принудительной продаже.
func (s *NotificationService) CreateManualSellNotification(symbol, message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Timestamp: time.Now().UTC(),
		Type:      models.NotificationTypeManualSell,
		Severity:  models.SeverityWarn,
		Symbol:    &symbol,
		Message:   message,
		Meta:      meta,
	}
	return s.CreateNotification(notif)
}

// CreatePauseNotification создает уведомление о приостановке охраны.
// Пустой символ означает глобальную приостановку.
func (s *NotificationService) CreatePauseNotification(symbol, message string) error {
	notif := &models.Notification{
		Timestamp: time.Now().UTC(),
		Type:      models.NotificationTypePause,
		Severity:  models.SeverityWarn,
		Message:   message,
	}
	if symbol != "" {
		notif.Symbol = &symbol
	}
	return s.CreateNotification(notif)
}
