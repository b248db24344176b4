package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/models"
)

func TestParseDate(t *testing.T) {
	today := truncateToDay(time.Now())

	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{name: "today", input: "today", want: today, wantOK: true},
		{name: "tomorrow", input: "Tomorrow", want: today.AddDate(0, 0, 1), wantOK: true},
		{name: "next monday", input: "next monday", want: nextWeekday(today, time.Monday), wantOK: true},
		{name: "bare weekday", input: "friday", want: nextWeekday(today, time.Friday), wantOK: true},
		{name: "iso date", input: "2026-12-24", want: time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "garbage", input: "whenever"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNextWeekday(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	wednesday := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		weekday time.Weekday
		want    time.Time
	}{
		{name: "later this week", weekday: time.Friday, want: wednesday.AddDate(0, 0, 2)},
		{name: "wraps to next week", weekday: time.Monday, want: wednesday.AddDate(0, 0, 5)},
		{name: "same weekday lands a week out", weekday: time.Wednesday, want: wednesday.AddDate(0, 0, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextWeekday(wednesday, tt.weekday))
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "morning", input: "morning", want: "09:00", wantOK: true},
		{name: "afternoon", input: "afternoon", want: "14:00", wantOK: true},
		{name: "evening", input: "Evening", want: "18:00", wantOK: true},
		{name: "night", input: "night", want: "21:00", wantOK: true},
		{name: "clock", input: "14:30", want: "14:30", wantOK: true},
		{name: "single digit hour", input: "9:30", want: "09:30", wantOK: true},
		{name: "out of range", input: "25:00"},
		{name: "garbage", input: "noonish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPriority(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantPriority  string
		wantRemaining string
	}{
		{
			name:          "urgent means high",
			input:         "fix the heater urgent",
			wantPriority:  models.PriorityHigh,
			wantRemaining: "fix the heater",
		},
		{
			name:          "urgent wins over low",
			input:         "urgent but low effort",
			wantPriority:  models.PriorityHigh,
			wantRemaining: "but low effort",
		},
		{
			name:          "medium in the middle",
			input:         "buy medium sized box",
			wantPriority:  models.PriorityMedium,
			wantRemaining: "buy sized box",
		},
		{
			name:          "no whole word match",
			input:         "highlight the doc",
			wantRemaining: "highlight the doc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priority, remaining := ExtractPriority(tt.input)
			assert.Equal(t, tt.wantPriority, priority)
			assert.Equal(t, tt.wantRemaining, remaining)
		})
	}
}

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantCategory  string
		wantRemaining string
	}{
		{
			name:          "shopping hashtag",
			input:         "buy milk #shopping",
			wantCategory:  models.CategoryShopping,
			wantRemaining: "buy milk",
		},
		{
			name:          "case insensitive",
			input:         "standup notes #Work today",
			wantCategory:  models.CategoryWork,
			wantRemaining: "standup notes today",
		},
		{
			name:          "no hashtag",
			input:         "buy milk",
			wantRemaining: "buy milk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, remaining := ExtractCategory(tt.input)
			assert.Equal(t, tt.wantCategory, category)
			assert.Equal(t, tt.wantRemaining, remaining)
		})
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	today := truncateToDay(time.Now())

	t.Run("full sentence", func(t *testing.T) {
		parsed := ParseNaturalLanguage("Buy milk tomorrow morning urgent #shopping")

		assert.Equal(t, "Buy milk", parsed.Title)
		assert.Equal(t, models.PriorityHigh, parsed.Priority)
		assert.Equal(t, models.CategoryShopping, parsed.Category)
		require.NotNil(t, parsed.DueDate)
		assert.Equal(t, today.AddDate(0, 0, 1), *parsed.DueDate)
		require.NotNil(t, parsed.DueTime)
		assert.Equal(t, "09:00", *parsed.DueTime)
	})

	t.Run("title only", func(t *testing.T) {
		parsed := ParseNaturalLanguage("Water the plants")

		assert.Equal(t, "Water the plants", parsed.Title)
		assert.Empty(t, parsed.Priority)
		assert.Empty(t, parsed.Category)
		assert.Nil(t, parsed.DueDate)
		assert.Nil(t, parsed.DueTime)
	})

	t.Run("next weekday", func(t *testing.T) {
		parsed := ParseNaturalLanguage("Dentist appointment next friday #health")

		assert.Equal(t, "Dentist appointment", parsed.Title)
		assert.Equal(t, models.CategoryHealth, parsed.Category)
		require.NotNil(t, parsed.DueDate)
		assert.Equal(t, nextWeekday(today, time.Friday), *parsed.DueDate)
	})
}
