package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/lms-notify/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#60A5FA", Light: "#2563EB"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#34D399", Light: "#059669"}
	ColorAmber   = lipgloss.AdaptiveColor{Dark: "#FBBF24", Light: "#D97706"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#F87171", Light: "#DC2626"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FB923C", Light: "#EA580C"}
	ColorPurple  = lipgloss.AdaptiveColor{Dark: "#C084FC", Light: "#9333EA"}
	ColorIndigo  = lipgloss.AdaptiveColor{Dark: "#818CF8", Light: "#4F46E5"}
	ColorSlate   = lipgloss.AdaptiveColor{Dark: "#94A3B8", Light: "#475569"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
	ColorUnread  = lipgloss.AdaptiveColor{Dark: "#1E293B", Light: "#EFF6FF"}
	ColorOnBadge = lipgloss.Color("#FFFFFF")
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorHintStyle marks a transport problem in the status bar.
var ErrorHintStyle = lipgloss.NewStyle().
	Foreground(ColorOnBadge).
	Background(ColorRed).
	Padding(0, 1)

// PanelStyle wraps the dropdown and overlays.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SelectedItemStyle highlights the focused notification row.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ListItemStyle is the base style for notification rows.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// GroupHeaderStyle renders the day bucket labels.
var GroupHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray).
	PaddingLeft(1)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// MutedStyle is used for secondary text such as timestamps.
var MutedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// BadgeStyle renders the unread counter on the bell.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOnBadge).
	Background(ColorRed).
	Padding(0, 1)

// TypeStyle is the presentation of one notification type.
type TypeStyle struct {
	Icon  string
	Color lipgloss.AdaptiveColor
	Label string
}

// TypeStyles maps each notification type to its icon, color and label.
var TypeStyles = map[model.NotificationType]TypeStyle{
	model.TypeReminder:     {Icon: "◷", Color: ColorBlue, Label: "Pengingat"},
	model.TypeAnnouncement: {Icon: "✦", Color: ColorPurple, Label: "Pengumuman"},
	model.TypeAlert:        {Icon: "⚠", Color: ColorRed, Label: "Peringatan"},
	model.TypeAchievement:  {Icon: "★", Color: ColorAmber, Label: "Pencapaian"},
	model.TypeWarning:      {Icon: "⚠", Color: ColorOrange, Label: "Peringatan"},
	model.TypeInfo:         {Icon: "ℹ", Color: ColorSlate, Label: "Informasi"},
	model.TypeAttendance:   {Icon: "✓", Color: ColorGreen, Label: "Kehadiran"},
	model.TypeSystem:       {Icon: "◆", Color: ColorIndigo, Label: "Sistem"},
}

// ForType returns the style for t, falling back to info for unknown types.
func ForType(t model.NotificationType) TypeStyle {
	if s, ok := TypeStyles[t]; ok {
		return s
	}
	return TypeStyles[model.TypeInfo]
}

// PriorityStyle is the presentation of one priority level. Normal has no
// badge.
type PriorityStyle struct {
	Label string
	Color lipgloss.AdaptiveColor
	Pulse bool
}

// PriorityStyles maps each priority to its badge.
var PriorityStyles = map[model.Priority]PriorityStyle{
	model.PriorityUrgent: {Label: "Urgent", Color: ColorRed, Pulse: true},
	model.PriorityHigh:   {Label: "Penting", Color: ColorOrange},
	model.PriorityNormal: {},
}

// ForPriority returns the style for p, falling back to normal.
func ForPriority(p model.Priority) PriorityStyle {
	if s, ok := PriorityStyles[p]; ok {
		return s
	}
	return PriorityStyles[model.PriorityNormal]
}

// PriorityBadge renders the badge for p, or "" for normal priority.
func PriorityBadge(p model.Priority) string {
	s := ForPriority(p)
	if s.Label == "" {
		return ""
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOnBadge).
		Background(s.Color).
		Padding(0, 1).
		Render(s.Label)
}

// TypeIcon renders the colored icon for t.
func TypeIcon(t model.NotificationType) string {
	s := ForType(t)
	return lipgloss.NewStyle().Foreground(s.Color).Render(s.Icon)
}
