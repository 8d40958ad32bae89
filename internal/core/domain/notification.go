package domain

import "time"

// NotificationType classifies notification presentation.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

// Valid reports whether t is one of the known types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationSuccess, NotificationError, NotificationInfo, NotificationWarning:
		return true
	}
	return false
}

// Notification is a transient user-facing message.
type Notification struct {
	ID      string           `json:"id"`
	Type    NotificationType `json:"type"`
	Title   string           `json:"title,omitempty"`
	Message string           `json:"message"`

	// Timeout is the auto-dismiss delay. Zero keeps the notification until
	// it is removed explicitly.
	Timeout time.Duration `json:"timeout"`

	CreatedAt time.Time `json:"created_at"`
}
