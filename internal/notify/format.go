package notify

import (
	"fmt"
	"strconv"
	"time"
)

// Day bucket labels.
const (
	LabelToday     = "Hari Ini"
	LabelYesterday = "Kemarin"
)

// BadgeLimit is the largest count the bell badge shows verbatim.
const BadgeLimit = 99

var monthsLong = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var monthsShort = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

// BadgeText returns the bell badge for an unread count. An empty string
// means no badge is rendered.
func BadgeText(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > BadgeLimit:
		return strconv.Itoa(BadgeLimit) + "+"
	default:
		return strconv.Itoa(count)
	}
}

// RelativeTime formats how long ago t was, as shown on a dropdown row.
// Anything a week or older is shown as a short date in now's location.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "Baru saja"
	case minutes < 60:
		return fmt.Sprintf("%dm lalu", minutes)
	case hours < 24:
		return fmt.Sprintf("%dj lalu", hours)
	case days < 7:
		return fmt.Sprintf("%dh lalu", days)
	default:
		return ShortDate(t.In(now.Location()))
	}
}

// ShortDate formats t as "5 Okt".
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), monthsShort[t.Month()-1])
}

// LongDate formats t as "5 Oktober".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), monthsLong[t.Month()-1])
}

// DayLabel returns the day bucket label for t. Buckets split at local
// midnight in now's location; dates outside the current year carry the
// year.
func DayLabel(t, now time.Time) string {
	loc := now.Location()
	day := midnight(t.In(loc))
	today := midnight(now)

	switch {
	case day.Equal(today):
		return LabelToday
	case day.Equal(today.AddDate(0, 0, -1)):
		return LabelYesterday
	case day.Year() != today.Year():
		return fmt.Sprintf("%s %d", LongDate(day), day.Year())
	default:
		return LongDate(day)
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
