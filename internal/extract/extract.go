// Package extract pulls structured filter values and calendar ranges out of
// free text. Both extractors are pure functions so the orchestrator stays
// deterministic and the behavior is directly testable.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Value returns the value associated with key in text, accepting the forms
// "key: value", "key=value" and "key value". The value is either a quoted
// string or a single word/hyphen/dot token. Keys match case-insensitively.
// Returns "" when the key is absent.
func Value(text, key string) string {
	pattern := fmt.Sprintf(`(?i)%s[:=\s]+(?:"([^"]*)"|'([^']*)'|([\w\-.]+))`, regexp.QuoteMeta(key))
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

// AssignedValue is Value restricted to the "key: value" and "key=value"
// forms. Use it for keys that also occur as grouping words in questions,
// where the space form would capture an unrelated following word.
func AssignedValue(text, key string) string {
	pattern := fmt.Sprintf(`(?i)%s\s*[:=]\s*(?:"([^"]*)"|'([^']*)'|([\w\-.]+))`, regexp.QuoteMeta(key))
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

// DateRange is a closed calendar interval, formatted YYYY-MM-DD.
type DateRange struct {
	From string
	To   string
}

// TimeRange recognizes relative calendar phrases anchored to now. It reports
// ok=false when no phrase is present; callers decide what a silent extractor
// means for them.
func TimeRange(text string, now time.Time) (DateRange, bool) {
	q := strings.ToLower(text)
	year, month, _ := now.Date()

	switch {
	case strings.Contains(q, "last year"):
		return yearRange(year - 1), true
	case strings.Contains(q, "this year"):
		return yearRange(year), true
	case strings.Contains(q, "last month"):
		return monthRange(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)), true
	case strings.Contains(q, "this month"):
		return monthRange(now), true
	case strings.Contains(q, "last quarter"):
		return quarterRange(now, -1), true
	case strings.Contains(q, "this quarter"), strings.Contains(q, "quarter"):
		return quarterRange(now, 0), true
	}

	return DateRange{}, false
}

func yearRange(year int) DateRange {
	return DateRange{
		From: fmt.Sprintf("%04d-01-01", year),
		To:   fmt.Sprintf("%04d-12-31", year),
	}
}

func monthRange(t time.Time) DateRange {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return DateRange{
		From: first.Format("2006-01-02"),
		To:   last.Format("2006-01-02"),
	}
}

// quarterRange computes a fixed calendar quarter (Jan-Mar, Apr-Jun, Jul-Sep,
// Oct-Dec) offset quarters away from the one containing now.
func quarterRange(now time.Time, offset int) DateRange {
	year, month, _ := now.Date()
	startMonth := time.Month((int(month)-1)/3*3 + 1)
	first := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset*3, 0)
	last := first.AddDate(0, 3, -1)
	return DateRange{
		From: first.Format("2006-01-02"),
		To:   last.Format("2006-01-02"),
	}
}
