// Package normalize maps raw task fields onto four signals in [0,1]:
// urgency, importance, quick-win and blocker.
//
// Constants:
//
//	Urgency    1 / (1 + exp((d - 6) / 1.5)) for d working days remaining;
//	           1.0 when overdue, 0.25 when the due date is missing or invalid.
//	Importance (clamp(v, 1, 10) - 1) / 9, default 5.
//	QuickWin   1 - ln(1+h) / ln(1+40), clamped; default 4 hours.
//	Blocker    count / max count in the batch; 0 when nobody is blocked.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/abatilo/triage/internal/calendar"
	"github.com/abatilo/triage/internal/task"
)

const (
	// MissingDueUrgency is the urgency floor for tasks without a usable due date.
	MissingDueUrgency = 0.25

	// DefaultImportance is assumed when importance is absent.
	DefaultImportance = 5
	MinImportance     = 1
	MaxImportance     = 10

	// DefaultHours is assumed when the effort estimate is absent, negative or
	// not finite.
	DefaultHours = 4.0
	// SaturationHours is the effort at which the quick-win signal reaches 0.
	SaturationHours = 40.0

	urgencyMidpoint = 6.0 // working days at which urgency is 0.5
	urgencySpread   = 1.5 // working days per e-fold of the logistic curve
)

// Signals holds the normalized inputs to scoring. Every field is in [0,1].
type Signals struct {
	Urgency    float64 `yaml:"urgency"    json:"urgency"`
	Importance float64 `yaml:"importance" json:"importance"`
	QuickWin   float64 `yaml:"quickwin"   json:"quickwin"`
	Blocker    float64 `yaml:"blocker"    json:"blocker"`
}

// Urgency maps working days remaining to [0,1]. Negative days mean overdue.
func Urgency(workingDays int) float64 {
	if workingDays < 0 {
		return 1.0
	}
	return clamp01(1.0 / (1.0 + math.Exp((float64(workingDays)-urgencyMidpoint)/urgencySpread)))
}

// Importance maps a 1..10 rating onto [0,1]. Out-of-range ratings are clamped.
func Importance(rating int) float64 {
	return float64(clampImportance(rating)-MinImportance) / float64(MaxImportance-MinImportance)
}

// QuickWin maps an effort estimate in hours onto [0,1]; small efforts score
// near 1 and anything at or past SaturationHours scores 0.
func QuickWin(hours float64) float64 {
	if math.IsNaN(hours) || hours < 0 {
		hours = DefaultHours
	}
	return clamp01(1.0 - math.Log1p(hours)/math.Log1p(SaturationHours))
}

// Blocker normalizes a downstream-dependent count by the largest count in
// the batch.
func Blocker(count, maxCount int) float64 {
	if maxCount <= 0 || count <= 0 {
		return 0
	}
	return clamp01(float64(count) / float64(maxCount))
}

// Normalizer computes per-task signals against a fixed date and calendar.
type Normalizer struct {
	Today    time.Time
	Holidays calendar.Holidays
}

// Normalized is the outcome of normalizing one task. Blocker is left at 0;
// it needs the whole batch and is filled in by the caller.
type Normalized struct {
	Signals    Signals
	Importance int
	Hours      float64
	// WorkingDays is nil when the task has no usable due date.
	WorkingDays *int
}

// Task normalizes t and returns one warning per defaulted or adjusted field.
func (n Normalizer) Task(t task.Task) (Normalized, []string) {
	var (
		out      Normalized
		warnings []string
	)

	due, ok := t.Due()
	switch {
	case ok:
		days := calendar.WorkingDaysUntil(n.Today, due, n.Holidays)
		out.WorkingDays = &days
		out.Signals.Urgency = Urgency(days)
	case t.HasDueDate():
		out.Signals.Urgency = MissingDueUrgency
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: invalid due_date %q -> treated as missing (urgency %d%%)",
			t.ID, t.DueDate, percent(MissingDueUrgency)))
	default:
		out.Signals.Urgency = MissingDueUrgency
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: due_date missing -> urgency defaults to %d%%", t.ID, percent(MissingDueUrgency)))
	}

	switch {
	case t.Importance == nil:
		out.Importance = DefaultImportance
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: importance missing -> defaulted to %d", t.ID, DefaultImportance))
	case *t.Importance != clampImportance(*t.Importance):
		out.Importance = clampImportance(*t.Importance)
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: importance %d out of range -> clamped to %d", t.ID, *t.Importance, out.Importance))
	default:
		out.Importance = *t.Importance
	}
	out.Signals.Importance = Importance(out.Importance)

	switch {
	case t.EstimatedHours == nil:
		out.Hours = DefaultHours
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: estimated_hours missing -> defaulted to %sh", t.ID, formatHours(DefaultHours)))
	case math.IsNaN(*t.EstimatedHours) || math.IsInf(*t.EstimatedHours, 0):
		out.Hours = DefaultHours
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: estimated_hours %s is not a finite number -> defaulted to %sh",
			t.ID, formatHours(*t.EstimatedHours), formatHours(DefaultHours)))
	case *t.EstimatedHours < 0:
		out.Hours = DefaultHours
		warnings = append(warnings, fmt.Sprintf(
			"Task %d: estimated_hours %s is negative -> defaulted to %sh",
			t.ID, formatHours(*t.EstimatedHours), formatHours(DefaultHours)))
	default:
		out.Hours = *t.EstimatedHours
	}
	out.Signals.QuickWin = QuickWin(out.Hours)

	return out, warnings
}

func clampImportance(v int) int {
	return max(MinImportance, min(MaxImportance, v))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(1, v))
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
