package task

import (
	"strings"
	"time"
)

// DateLayout is the wire format for due dates and analysis dates.
const DateLayout = "2006-01-02"

// Task is a work item submitted for ranking. Nil pointers mean the caller
// did not supply the field.
type Task struct {
	ID             int      `yaml:"id"                        json:"id"`
	Title          string   `yaml:"title"                     json:"title"`
	DueDate        string   `yaml:"due_date,omitempty"        json:"due_date,omitempty"`
	EstimatedHours *float64 `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	Importance     *int     `yaml:"importance,omitempty"      json:"importance,omitempty"`
	Dependencies   []int    `yaml:"dependencies,omitempty"    json:"dependencies,omitempty"`
}

// HasDueDate reports whether a due date was supplied at all, valid or not.
func (t Task) HasDueDate() bool {
	return strings.TrimSpace(t.DueDate) != ""
}

// Due parses the due date. The second return is false when the date is
// absent or unparsable.
func (t Task) Due() (time.Time, bool) {
	if !t.HasDueDate() {
		return time.Time{}, false
	}
	d, err := ParseDate(t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// UniqueDependencies returns the dependency ids with duplicates removed,
// keeping first-seen order.
func (t Task) UniqueDependencies() []int {
	seen := make(map[int]bool, len(t.Dependencies))
	deps := make([]int, 0, len(t.Dependencies))
	for _, id := range t.Dependencies {
		if seen[id] {
			continue
		}
		seen[id] = true
		deps = append(deps, id)
	}
	return deps
}

// ParseDate parses a date-only string. Full RFC 3339 timestamps are accepted
// and truncated to their calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		DateLayout,
		time.RFC3339,
		time.RFC3339Nano,
	}
	var lastErr error
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return Day(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
