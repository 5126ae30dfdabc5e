package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// NotificationEvent is the message body published for every committed notification.
type NotificationEvent struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewNotificationEvent(n core.Notification) NotificationEvent {
	ev := NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.UTC(),
	}
	if n.DataJSON != "" && json.Valid([]byte(n.DataJSON)) {
		ev.Data = json.RawMessage(n.DataJSON)
	}
	return ev
}

func (e NotificationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func NotificationEventFromJSON(data []byte) (NotificationEvent, error) {
	var ev NotificationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return NotificationEvent{}, err
	}
	return ev, nil
}
