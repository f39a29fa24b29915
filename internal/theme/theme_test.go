package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/lms-notify/internal/model"
)

func TestForTypeFallsBackToInfo(t *testing.T) {
	assert.Equal(t, "Kehadiran", ForType(model.TypeAttendance).Label)
	assert.Equal(t, "Informasi", ForType("birthday").Label)
	assert.Equal(t, ForType(model.TypeAlert).Label, ForType(model.TypeWarning).Label)
}

func TestForPriority(t *testing.T) {
	assert.True(t, ForPriority(model.PriorityUrgent).Pulse)
	assert.Equal(t, "Penting", ForPriority(model.PriorityHigh).Label)
	assert.Empty(t, ForPriority("whatever").Label)
	assert.Empty(t, PriorityBadge(model.PriorityNormal))
	assert.Contains(t, PriorityBadge(model.PriorityUrgent), "Urgent")
}

func TestEveryTypeHasStyle(t *testing.T) {
	for _, typ := range []model.NotificationType{
		model.TypeReminder, model.TypeAnnouncement, model.TypeAlert, model.TypeAchievement,
		model.TypeWarning, model.TypeInfo, model.TypeAttendance, model.TypeSystem,
	} {
		s, ok := TypeStyles[typ]
		assert.True(t, ok, typ)
		assert.NotEmpty(t, s.Icon, typ)
	}
}
