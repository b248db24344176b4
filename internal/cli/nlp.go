package cli

import (
	"regexp"
	"strings"
	"time"

	"github.com/luminahq/lumina/internal/models"
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var timeKeywords = map[string]string{
	"morning":   "09:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"night":     "21:00",
}

// priorityKeywords maps in declaration order: "urgent" and "high"
// both mean high priority, and urgent wins when both appear.
var priorityKeywords = []struct {
	keyword  string
	priority string
}{
	{"urgent", models.PriorityHigh},
	{"high", models.PriorityHigh},
	{"medium", models.PriorityMedium},
	{"low", models.PriorityLow},
}

var categoryHashtags = map[string]string{
	"#work":     models.CategoryWork,
	"#personal": models.CategoryPersonal,
	"#shopping": models.CategoryShopping,
	"#health":   models.CategoryHealth,
	"#other":    models.CategoryOther,
}

var (
	clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	spaceRe = regexp.MustCompile(`\s+`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(tomorrow)\b`),
		regexp.MustCompile(`(?i)\b(today)\b`),
		regexp.MustCompile(`(?i)\b(next\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
		regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	}
)

// ParseDate parses natural language date input: today, tomorrow,
// next <weekday>, <weekday>, or YYYY-MM-DD.
func ParseDate(text string) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	today := truncateToDay(time.Now())

	switch {
	case text == "today":
		return today, true
	case text == "tomorrow":
		return today.AddDate(0, 0, 1), true
	case strings.HasPrefix(text, "next "):
		if weekday, ok := weekdays[strings.TrimPrefix(text, "next ")]; ok {
			return nextWeekday(today, weekday), true
		}
	}
	if weekday, ok := weekdays[text]; ok {
		return nextWeekday(today, weekday), true
	}

	parsed, err := time.Parse("2006-01-02", text)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// nextWeekday returns the next occurrence of the weekday strictly
// after today: asking for today's weekday lands a week out.
func nextWeekday(today time.Time, weekday time.Weekday) time.Time {
	delta := (int(weekday) - int(today.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseTime parses a time keyword (morning, afternoon, evening,
// night) or HH:MM input into "HH:MM" form.
func ParseTime(text string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))

	if clock, ok := timeKeywords[text]; ok {
		return clock, true
	}

	match := clockRe.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	parsed, err := time.Parse("15:04", normalizeClock(match[1], match[2]))
	if err != nil {
		return "", false
	}
	return parsed.Format("15:04"), true
}

func normalizeClock(hour, minute string) string {
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + minute
}

// ExtractPriority finds the first whole-word priority keyword and
// returns it with the keyword removed from the text.
func ExtractPriority(text string) (string, string) {
	for _, entry := range priorityKeywords {
		re := regexp.MustCompile(`(?i)\b` + entry.keyword + `\b`)
		if re.MatchString(text) {
			return entry.priority, collapseSpaces(re.ReplaceAllString(text, ""))
		}
	}
	return "", text
}

// ExtractCategory finds a category hashtag and returns it with the
// hashtag removed from the text.
func ExtractCategory(text string) (string, string) {
	lower := strings.ToLower(text)
	for hashtag, category := range categoryHashtags {
		idx := strings.Index(lower, hashtag)
		if idx < 0 {
			continue
		}
		return category, collapseSpaces(text[:idx] + text[idx+len(hashtag):])
	}
	return "", text
}

func collapseSpaces(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// ParsedTask is the result of natural language task extraction.
type ParsedTask struct {
	Title    string
	Priority string
	Category string
	DueDate  *time.Time
	DueTime  *string
}

// ParseNaturalLanguage extracts priority, category, due time and due
// date from free text. Whatever remains becomes the title.
func ParseNaturalLanguage(text string) ParsedTask {
	var parsed ParsedTask
	remaining := strings.TrimSpace(text)

	parsed.Priority, remaining = ExtractPriority(remaining)
	parsed.Category, remaining = ExtractCategory(remaining)

	// Time keywords go first: "tomorrow morning" must not leave the
	// time word glued to the title.
	lower := strings.ToLower(remaining)
	for keyword, clock := range timeKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		dueTime := clock
		parsed.DueTime = &dueTime
		re := regexp.MustCompile(`(?i)\b` + keyword + `\b`)
		remaining = collapseSpaces(re.ReplaceAllString(remaining, ""))
		break
	}

	for _, pattern := range datePatterns {
		loc := pattern.FindStringSubmatchIndex(remaining)
		if loc == nil {
			continue
		}
		if dueDate, ok := ParseDate(remaining[loc[2]:loc[3]]); ok {
			parsed.DueDate = &dueDate
		}
		remaining = collapseSpaces(remaining[:loc[0]] + remaining[loc[1]:])
		break
	}

	parsed.Title = strings.TrimSpace(remaining)
	return parsed
}
