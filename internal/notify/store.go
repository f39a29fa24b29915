// Package notify holds the client-side projection of the header
// notifications: the working list as last confirmed by the server, the
// derived unread counts and the day-grouped dropdown view.
package notify

import (
	"time"

	"github.com/nhle/lms-notify/internal/model"
)

// DayGroup is one dated section of the dropdown.
type DayGroup struct {
	Label string
	Items []model.Notification
}

// Store is the notification working set. It is owned by the UI goroutine
// and is not safe for concurrent use.
type Store struct {
	items        []model.Notification
	serverUnread int
	config       model.NotificationConfig
	available    bool

	// readAt remembers every read timestamp seen this session so a stale
	// payload cannot flip an item back to unread.
	readAt map[int64]time.Time
}

// NewStore returns an empty store. Until the first Apply the control is
// unavailable.
func NewStore() *Store {
	return &Store{readAt: make(map[int64]time.Time)}
}

// Apply replaces the working set with the server-confirmed page props.
// Props without headerNotifications or notificationConfig make the
// control unavailable.
func (s *Store) Apply(props model.PageProps) {
	if !props.HasNotifications() {
		s.available = false
		s.items = nil
		s.serverUnread = 0
		return
	}

	items := make([]model.Notification, len(props.HeaderNotifications.Items))
	copy(items, props.HeaderNotifications.Items)

	for i := range items {
		n := &items[i]
		if n.ReadAt != nil {
			if _, seen := s.readAt[n.ID]; !seen {
				s.readAt[n.ID] = *n.ReadAt
			}
			continue
		}
		if at, seen := s.readAt[n.ID]; seen {
			readAt := at
			n.ReadAt = &readAt
		}
	}

	s.items = items
	s.serverUnread = props.HeaderNotifications.UnreadCount
	s.config = *props.NotificationConfig
	s.available = true
}

// Available reports whether the last props carried notification data.
func (s *Store) Available() bool {
	return s.available
}

// Config returns the endpoint set injected with the last props.
func (s *Store) Config() model.NotificationConfig {
	return s.config
}

// Len returns the number of loaded notifications.
func (s *Store) Len() int {
	return len(s.items)
}

// Find returns the loaded notification with the given id.
func (s *Store) Find(id int64) (model.Notification, bool) {
	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// UnreadCount counts unread items among the loaded list.
func (s *Store) UnreadCount() int {
	return CountUnread(s.items)
}

// TotalUnread is the badge count: the server's total across the full set,
// never less than what is unread in the loaded list.
func (s *Store) TotalUnread() int {
	if local := s.UnreadCount(); local > s.serverUnread {
		return local
	}
	return s.serverUnread
}

// HasUrgentUnread reports whether any loaded item is urgent and unread.
func (s *Store) HasUrgentUnread() bool {
	for _, n := range s.items {
		if n.IsUrgentUnread() {
			return true
		}
	}
	return false
}

// Remove drops the item from the working set ahead of the server's
// confirmation. It stays gone until a later Apply supplies it again.
func (s *Store) Remove(id int64) bool {
	for i, n := range s.items {
		if n.ID != id {
			continue
		}
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		if n.IsUnread() && s.serverUnread > 0 {
			s.serverUnread--
		}
		return true
	}
	return false
}

// Truncated reports whether the dropdown hides items beyond limit.
func (s *Store) Truncated(limit int) bool {
	return limit > 0 && len(s.items) > limit
}

// View returns the first limit items grouped into day buckets relative to
// now. Order is as received; buckets appear in order of first use.
func (s *Store) View(limit int, now time.Time) []DayGroup {
	items := s.items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return GroupByDay(items, now)
}

// GroupByDay buckets items by DayLabel without reordering them.
func GroupByDay(items []model.Notification, now time.Time) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)

	for _, n := range items {
		label := DayLabel(n.CreatedAt, now)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, DayGroup{Label: label})
		}
		groups[i].Items = append(groups[i].Items, n)
	}

	return groups
}

// CountUnread counts items with no read timestamp.
func CountUnread(items []model.Notification) int {
	count := 0
	for _, n := range items {
		if n.IsUnread() {
			count++
		}
	}
	return count
}
