package guard

import "stopguard/internal/models"

// ValidTransitions определяет допустимые переходы между состояниями охраны
var ValidTransitions = map[string][]string{
	models.GuardStateIdle:          {models.GuardStateGuarding},
	models.GuardStateGuarding:      {models.GuardStateExitPending, models.GuardStateIdle}, // Idle при внешнем исполнении ордера
	models.GuardStateExitPending:   {models.GuardStateExitConfirmed, models.GuardStateGuarding},
	models.GuardStateExitConfirmed: {models.GuardStateIdle},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateInfo возвращает описание состояния для UI
func StateInfo(s string) string {
	switch s {
	case models.GuardStateIdle:
		return "Нет охраняемого ордера"
	case models.GuardStateGuarding:
		return "Ордер под охраной (мониторинг активен)"
	case models.GuardStateExitPending:
		return "Выполняется авто-выход..."
	case models.GuardStateExitConfirmed:
		return "Продажа подтверждена биржей"
	default:
		return "Неизвестное состояние"
	}
}

// IsGuardActive возвращает true если охрана символа активна
func IsGuardActive(s string) bool {
	return s == models.GuardStateGuarding || s == models.GuardStateExitPending
}

// IsExiting возвращает true если идёт процедура выхода
func IsExiting(s string) bool {
	return s == models.GuardStateExitPending || s == models.GuardStateExitConfirmed
}
