package websocket

import (
	"time"

	"stopguard/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeGuardUpdate - обновление состояния охраны символа.
	// Отправляется после каждого цикла оценки, в котором изменились метрики.
	MessageTypeGuardUpdate MessageType = "guardUpdate"

	// MessageTypeNotification - новое уведомление.
	// Отправляется при событиях: авто-выход, пробитие стопа, take-profit,
	// внешнее исполнение, ошибки.
	MessageTypeNotification MessageType = "notification"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// GuardUpdateMessage - сообщение об обновлении охраны символа
//
// Содержит снимок состояния: текущее состояние машины, охраняемый ордер,
// safeguard stop и последний вердикт авто-выхода.
type GuardUpdateMessage struct {
	BaseMessage
	Symbol string                    `json:"symbol"`
	Data   *models.SymbolGuardStatus `json:"data"`
}

// NotificationMessage - сообщение о новом уведомлении
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные уведомления
type NotificationData struct {
	ID        int                    `json:"id"`
	Type      string                 `json:"type"`
	Severity  string                 `json:"severity"`
	Symbol    *string                `json:"symbol,omitempty"`
	Message   string                 `json:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewGuardUpdateMessage создает сообщение обновления охраны
func NewGuardUpdateMessage(status models.SymbolGuardStatus) *GuardUpdateMessage {
	return &GuardUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeGuardUpdate,
			Timestamp: time.Now(),
		},
		Symbol: status.Symbol,
		Data:   &status,
	}
}

// NewNotificationMessage создает сообщение уведомления
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			ID:        notif.ID,
			Type:      notif.Type,
			Severity:  notif.Severity,
			Symbol:    notif.Symbol,
			Message:   notif.Message,
			Meta:      notif.Meta,
			Timestamp: notif.Timestamp,
		},
	}
}
