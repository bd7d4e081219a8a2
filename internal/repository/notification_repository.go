package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"stopguard/internal/models"
)

// Ошибки репозитория уведомлений
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationRepository - работа с таблицами notifications и
// notification_preferences (одна запись, id=1)
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create сохраняет уведомление и проставляет сгенерированный id
func (r *NotificationRepository) Create(n *models.Notification) error {
	var metaJSON []byte
	if n.Meta != nil {
		var err error
		metaJSON, err = json.Marshal(n.Meta)
		if err != nil {
			return err
		}
	}

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	query := `
		INSERT INTO notifications (timestamp, type, severity, symbol, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(query,
		n.Timestamp,
		n.Type,
		n.Severity,
		n.Symbol,
		n.Message,
		metaJSON,
	).Scan(&n.ID)
}

// GetRecent возвращает последние limit уведомлений (новые первыми)
func (r *NotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, timestamp, type, severity, symbol, message, meta
		FROM notifications
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var metaJSON []byte
		if err := rows.Scan(&n.ID, &n.Timestamp, &n.Type, &n.Severity, &n.Symbol, &n.Message, &metaJSON); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &n.Meta); err != nil {
				return nil, err
			}
		}
		result = append(result, n)
	}

	return result, rows.Err()
}

// DeleteOlderThan удаляет уведомления старше порога, возвращает количество
func (r *NotificationRepository) DeleteOlderThan(threshold time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM notifications WHERE timestamp < $1`, threshold)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetPreferences возвращает настройки отображения уведомлений.
// При отсутствии записи все типы считаются включёнными.
func (r *NotificationRepository) GetPreferences() (*models.NotificationPreferences, error) {
	var prefsJSON []byte
	err := r.db.QueryRow(`SELECT prefs FROM notification_preferences WHERE id = 1`).Scan(&prefsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			prefs := defaultNotificationPrefs()
			return &prefs, nil
		}
		return nil, err
	}

	prefs := defaultNotificationPrefs()
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
			return nil, err
		}
	}
	return &prefs, nil
}

// UpdatePreferences сохраняет настройки отображения уведомлений
func (r *NotificationRepository) UpdatePreferences(prefs models.NotificationPreferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notification_preferences (id, prefs, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id)
		DO UPDATE SET prefs = EXCLUDED.prefs, updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(query, prefsJSON, time.Now())
	return err
}

// defaultNotificationPrefs: по умолчанию все типы включены
func defaultNotificationPrefs() models.NotificationPreferences {
	return models.NotificationPreferences{
		AutoExit:     true,
		StopReached:  true,
		TakeProfit:   true,
		ExternalFill: true,
		APIError:     true,
		ManualSell:   true,
		Pause:        true,
	}
}
