package devserver

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nhle/lms-notify/internal/model"
)

// ErrNotFound is returned for an id the role's inbox does not hold.
var ErrNotFound = errors.New("notification not found")

// Inbox is an in-memory notification set per role.
type Inbox struct {
	mu     sync.Mutex
	nextID int64
	items  map[model.Role][]model.Notification
}

// NewInbox returns an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{items: make(map[model.Role][]model.Notification)}
}

// Add stores n for role with a fresh id and returns the stored copy.
// A zero CreatedAt is left for the caller to fill.
func (b *Inbox) Add(role model.Role, n model.Notification) model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	n.ID = b.nextID
	if n.Type == "" {
		n.Type = model.TypeInfo
	}
	if n.Priority == "" {
		n.Priority = model.PriorityNormal
	}
	b.items[role] = append(b.items[role], n)
	return n
}

// Header returns the newest limit items, newest first, plus the unread
// total over the whole set.
func (b *Inbox) Header(role model.Role, limit int) model.HeaderNotifications {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]model.Notification, len(b.items[role]))
	copy(all, b.items[role])
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	unread := 0
	for _, n := range all {
		if n.IsUnread() {
			unread++
		}
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return model.HeaderNotifications{Items: all, UnreadCount: unread}
}

// MarkRead sets read_at on one item. An item already read keeps its
// original timestamp.
func (b *Inbox) MarkRead(role model.Role, id int64, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items[role] {
		n := &b.items[role][i]
		if n.ID != id {
			continue
		}
		if n.ReadAt == nil {
			readAt := at
			n.ReadAt = &readAt
		}
		return nil
	}
	return errors.Wrapf(ErrNotFound, "marking %d read", id)
}

// MarkAllRead sets read_at on every unread item of role and reports how
// many changed.
func (b *Inbox) MarkAllRead(role model.Role, at time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed := 0
	for i := range b.items[role] {
		n := &b.items[role][i]
		if n.ReadAt == nil {
			readAt := at
			n.ReadAt = &readAt
			changed++
		}
	}
	return changed
}

// Delete removes one item.
func (b *Inbox) Delete(role model.Role, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.items[role]
	for i, n := range items {
		if n.ID == id {
			b.items[role] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "deleting %d", id)
}
