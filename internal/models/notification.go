package models

import "time"

// Notification представляет уведомление о событии охраны позиции
type Notification struct {
	ID        int                    `json:"id" db:"id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	Type      string                 `json:"type" db:"type"`           // AUTO_EXIT, STOP_REACHED, TAKE_PROFIT, EXTERNAL_FILL, ERROR, MANUAL_SELL, PAUSE
	Severity  string                 `json:"severity" db:"severity"`   // info, warn, error
	Symbol    *string                `json:"symbol,omitempty" db:"symbol"`
	Message   string                 `json:"message" db:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeAutoExit     = "AUTO_EXIT"     // авто-выход исполнен (продажа подтверждена)
	NotificationTypeStopReached  = "STOP_REACHED"  // цена пробила safeguard stop
	NotificationTypeTakeProfit   = "TAKE_PROFIT"   // достигнута ATR-цель take-profit
	NotificationTypeExternalFill = "EXTERNAL_FILL" // охраняемый ордер исполнен/снят извне
	NotificationTypeError        = "ERROR"         // ошибка биржи/ордера
	NotificationTypeManualSell   = "MANUAL_SELL"   // принудительная ручная продажа
	NotificationTypePause        = "PAUSE"         // охрана символа приостановлена
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// NotificationPreferences представляет настройки отображения типов уведомлений
type NotificationPreferences struct {
	AutoExit     bool `json:"auto_exit"`
	StopReached  bool `json:"stop_reached"`
	TakeProfit   bool `json:"take_profit"`
	ExternalFill bool `json:"external_fill"`
	APIError     bool `json:"api_error"`
	ManualSell   bool `json:"manual_sell"`
	Pause        bool `json:"pause"`
}
