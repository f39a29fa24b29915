package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/lms-notify/internal/model"
)

var wib = time.FixedZone("WIB", 7*60*60)

func testNow() time.Time {
	return time.Date(2026, time.October, 15, 14, 0, 0, 0, wib)
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrString(s string) *string { return &s }

func props(unread int, items ...model.Notification) model.PageProps {
	return model.PageProps{
		HeaderNotifications: &model.HeaderNotifications{
			Items:       items,
			UnreadCount: unread,
		},
		NotificationConfig: &model.NotificationConfig{
			BaseURL: "/user/notifications",
			AllURL:  "/user/notifications",
		},
	}
}

func notif(id int64, created time.Time) model.Notification {
	return model.Notification{
		ID:        id,
		Title:     "Jadwal kuliah",
		Message:   "Kelas dimulai 10 menit lagi",
		Type:      model.TypeReminder,
		Priority:  model.PriorityNormal,
		CreatedAt: created,
	}
}

func TestUnreadCountMatchesLoadedList(t *testing.T) {
	now := testNow()
	read := notif(2, now.Add(-time.Hour))
	read.ReadAt = ptrTime(now)

	s := NewStore()
	s.Apply(props(2, notif(1, now), read, notif(3, now.Add(-2*time.Hour))))

	assert.Equal(t, 2, s.UnreadCount())
	assert.Equal(t, CountUnread(s.items), s.UnreadCount())
}

func TestTotalUnreadPrefersServerTotal(t *testing.T) {
	now := testNow()
	s := NewStore()
	s.Apply(props(42, notif(1, now)))

	assert.Equal(t, 1, s.UnreadCount())
	assert.Equal(t, 42, s.TotalUnread())
	assert.Equal(t, "42", BadgeText(s.TotalUnread()))
}

func TestApplyWithoutHeaderPropsIsUnavailable(t *testing.T) {
	s := NewStore()
	s.Apply(props(1, notif(1, testNow())))
	require.True(t, s.Available())

	s.Apply(model.PageProps{})
	assert.False(t, s.Available())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.TotalUnread())

	s.Apply(model.PageProps{HeaderNotifications: &model.HeaderNotifications{}})
	assert.False(t, s.Available(), "config missing")
}

func TestReadAtNeverReverts(t *testing.T) {
	now := testNow()
	read := notif(7, now)
	read.ReadAt = ptrTime(now)

	s := NewStore()
	s.Apply(props(0, read))

	// A stale payload still reports the item unread.
	s.Apply(props(1, notif(7, now)))

	n, ok := s.Find(7)
	require.True(t, ok)
	require.NotNil(t, n.ReadAt)
	assert.True(t, n.ReadAt.Equal(now))
	assert.Zero(t, s.UnreadCount())
}

func TestApplyIsIdempotent(t *testing.T) {
	now := testNow()
	read := notif(1, now)
	read.ReadAt = ptrTime(now)
	p := props(0, read, notif(2, now))

	s := NewStore()
	s.Apply(p)
	first := s.View(10, now)
	s.Apply(p)

	assert.Equal(t, first, s.View(10, now))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestRemoveDropsItemUntilReapplied(t *testing.T) {
	now := testNow()
	p := props(2, notif(1, now), notif(2, now.Add(-time.Minute)))

	s := NewStore()
	s.Apply(p)

	require.True(t, s.Remove(1))
	assert.False(t, s.Remove(1))
	assert.Equal(t, 1, s.TotalUnread())

	for _, g := range s.View(10, now) {
		for _, n := range g.Items {
			assert.NotEqual(t, int64(1), n.ID)
		}
	}

	// A fresh payload that still carries it brings it back.
	s.Apply(p)
	_, ok := s.Find(1)
	assert.True(t, ok)
}

func TestRemoveDoesNotAliasItems(t *testing.T) {
	now := testNow()
	s := NewStore()
	s.Apply(props(0, notif(1, now), notif(2, now), notif(3, now)))

	before := s.items
	s.Remove(1)

	assert.Equal(t, int64(1), before[0].ID)
	assert.Equal(t, 3, len(before))
}

func TestHasUrgentUnread(t *testing.T) {
	now := testNow()
	urgent := notif(1, now)
	urgent.Priority = model.PriorityUrgent

	s := NewStore()
	s.Apply(props(1, notif(2, now), urgent))
	assert.True(t, s.HasUrgentUnread())

	urgent.ReadAt = ptrTime(now)
	s.Apply(props(0, urgent))
	assert.False(t, s.HasUrgentUnread())
}

func TestViewGroupsByDay(t *testing.T) {
	now := testNow()
	today := time.Date(2026, time.October, 15, 0, 0, 0, 0, wib)

	s := NewStore()
	s.Apply(props(4,
		notif(1, today.Add(23*time.Hour+59*time.Minute)),
		notif(2, today.Add(9*time.Hour)),
		notif(3, today.AddDate(0, 0, -1).Add(10*time.Hour)),
		notif(4, today.AddDate(0, 0, -8).Add(8*time.Hour)),
	))

	groups := s.View(10, now)
	require.Len(t, groups, 3)

	assert.Equal(t, LabelToday, groups[0].Label)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, int64(1), groups[0].Items[0].ID, "order as received")

	assert.Equal(t, LabelYesterday, groups[1].Label)
	assert.Len(t, groups[1].Items, 1)

	assert.Equal(t, "7 Oktober", groups[2].Label)
	assert.Len(t, groups[2].Items, 1)
}

func TestViewUsesLocalMidnight(t *testing.T) {
	now := testNow()
	// 23:30 UTC on the 14th is 06:30 WIB on the 15th.
	created := time.Date(2026, time.October, 14, 23, 30, 0, 0, time.UTC)

	groups := GroupByDay([]model.Notification{notif(1, created)}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, LabelToday, groups[0].Label)
}

func TestViewTruncatesToLimit(t *testing.T) {
	now := testNow()
	var items []model.Notification
	for i := int64(1); i <= 12; i++ {
		items = append(items, notif(i, now.Add(-time.Duration(i)*time.Minute)))
	}

	s := NewStore()
	s.Apply(props(12, items...))

	total := 0
	for _, g := range s.View(10, now) {
		total += len(g.Items)
	}
	assert.Equal(t, 10, total)
	assert.True(t, s.Truncated(10))
	assert.False(t, s.Truncated(12))
	assert.Equal(t, 12, s.Len())
}

func TestViewEmpty(t *testing.T) {
	s := NewStore()
	s.Apply(props(0))
	assert.Empty(t, s.View(10, testNow()))
	assert.True(t, s.Available())
}

func TestHasAction(t *testing.T) {
	n := notif(1, testNow())
	assert.False(t, n.HasAction())
	n.ActionURL = ptrString("")
	assert.False(t, n.HasAction())
	n.ActionURL = ptrString("/user/absensi")
	assert.True(t, n.HasAction())
}
