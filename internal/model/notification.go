package model

import "time"

// NotificationType classifies a notification for presentation only.
// It never changes how a notification behaves.
type NotificationType string

const (
	TypeReminder     NotificationType = "reminder"
	TypeAnnouncement NotificationType = "announcement"
	TypeAlert        NotificationType = "alert"
	TypeAchievement  NotificationType = "achievement"
	TypeWarning      NotificationType = "warning"
	TypeInfo         NotificationType = "info"
	TypeAttendance   NotificationType = "attendance"
	TypeSystem       NotificationType = "system"
)

// Priority is the urgency of a notification.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Notification is a single item delivered in the header page props.
type Notification struct {
	// ID is stable across renders.
	ID int64 `json:"id"`

	Title   string `json:"title"`
	Message string `json:"message"`

	Type     NotificationType `json:"type"`
	Priority Priority         `json:"priority"`

	// ActionURL is navigated to when the notification is opened.
	ActionURL *string `json:"action_url"`

	// ReadAt is nil while the notification is unread.
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

// IsUnread reports whether the notification has not been read yet.
func (n Notification) IsUnread() bool {
	return n.ReadAt == nil
}

// IsUrgentUnread reports whether the notification is urgent and unread.
func (n Notification) IsUrgentUnread() bool {
	return n.Priority == PriorityUrgent && n.ReadAt == nil
}

// HasAction reports whether opening the notification navigates somewhere.
func (n Notification) HasAction() bool {
	return n.ActionURL != nil && *n.ActionURL != ""
}

// HeaderNotifications is the `headerNotifications` shared page prop.
type HeaderNotifications struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unreadCount"`
}

// NotificationConfig is the `notificationConfig` shared page prop. BaseURL
// is the role-scoped action prefix, AllURL the full history page.
type NotificationConfig struct {
	BaseURL string `json:"baseUrl"`
	AllURL  string `json:"allUrl"`
}

// PageProps holds the subset of shared page data this client reads.
// Either field may be absent, in which case the notification control is
// not rendered.
type PageProps struct {
	HeaderNotifications *HeaderNotifications `json:"headerNotifications"`
	NotificationConfig  *NotificationConfig  `json:"notificationConfig"`
}

// HasNotifications reports whether both notification props were injected.
func (p PageProps) HasNotifications() bool {
	return p.HeaderNotifications != nil && p.NotificationConfig != nil
}

// Page is the page object returned by the server for an Inertia visit.
type Page struct {
	Component string    `json:"component"`
	Props     PageProps `json:"props"`
	URL       string    `json:"url"`
	Version   string    `json:"version"`
}
