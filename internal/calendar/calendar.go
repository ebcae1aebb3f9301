// Package calendar counts working days between dates. Weekends and a
// caller-supplied holiday set are non-working.
package calendar

import (
	"fmt"
	"time"

	"github.com/abatilo/triage/internal/task"
)

const (
	daysPerWeek    = 7
	workdaysInWeek = 5
	dayHours       = 24
)

// MonthDay is a holiday that recurs on the same date every year.
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// ParseMonthDay parses an "MM-DD" string.
func ParseMonthDay(s string) (MonthDay, error) {
	// Parse against a leap year so 02-29 is accepted.
	t, err := time.Parse("2006-01-02", "2024-"+s)
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid recurring holiday %q (expected MM-DD)", s)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// Holidays is an immutable set of non-working dates. The zero value has no
// holidays.
type Holidays struct {
	dates     map[time.Time]bool
	recurring []MonthDay
}

// NewHolidays builds a holiday set from fixed dates and yearly recurring dates.
func NewHolidays(dates []time.Time, recurring []MonthDay) Holidays {
	h := Holidays{
		dates:     make(map[time.Time]bool, len(dates)),
		recurring: append([]MonthDay(nil), recurring...),
	}
	for _, d := range dates {
		h.dates[task.Day(d)] = true
	}
	return h
}

// ParseHolidays builds a holiday set from YYYY-MM-DD dates and MM-DD
// recurring dates.
func ParseHolidays(dates, recurring []string) (Holidays, error) {
	fixed := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		d, err := time.Parse(task.DateLayout, s)
		if err != nil {
			return Holidays{}, fmt.Errorf("invalid holiday date %q (expected YYYY-MM-DD)", s)
		}
		fixed = append(fixed, d)
	}
	yearly := make([]MonthDay, 0, len(recurring))
	for _, s := range recurring {
		md, err := ParseMonthDay(s)
		if err != nil {
			return Holidays{}, err
		}
		yearly = append(yearly, md)
	}
	return NewHolidays(fixed, yearly), nil
}

// Contains reports whether d is a holiday.
func (h Holidays) Contains(d time.Time) bool {
	d = task.Day(d)
	if h.dates[d] {
		return true
	}
	for _, md := range h.recurring {
		if d.Month() == md.Month && d.Day() == md.Day {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether d is neither a weekend day nor a holiday.
func (h Holidays) IsWorkingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return !h.Contains(d)
	}
}

// WorkingDaysUntil counts the working days after today up to and including
// due. An overdue task yields a negative count whose magnitude is the number
// of working days overdue; any due date before today yields at most -1, even
// when only weekends or holidays have passed.
func WorkingDaysUntil(today, due time.Time, holidays Holidays) int {
	today, due = task.Day(today), task.Day(due)
	if !due.Before(today) {
		return holidays.workingDaysBetween(today, due)
	}
	n := holidays.workingDaysBetween(due, today)
	if n == 0 {
		n = 1
	}
	return -n
}

// workingDaysBetween counts working days in (from, to]. Both are midnight UTC.
func (h Holidays) workingDaysBetween(from, to time.Time) int {
	total := int(to.Sub(from).Hours() / dayHours)
	if total <= 0 {
		return 0
	}

	weeks := total / daysPerWeek
	count := weeks * workdaysInWeek
	for d := from.AddDate(0, 0, weeks*daysPerWeek+1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			count++
		}
	}

	return count - h.weekdayHolidaysBetween(from, to)
}

// weekdayHolidaysBetween counts distinct holidays in (from, to] that fall on
// a weekday.
func (h Holidays) weekdayHolidaysBetween(from, to time.Time) int {
	inRange := func(d time.Time) bool {
		return d.After(from) && !d.After(to) && isWeekday(d)
	}

	seen := make(map[time.Time]bool)
	for d := range h.dates {
		if inRange(d) {
			seen[d] = true
		}
	}
	for year := from.Year(); year <= to.Year(); year++ {
		for _, md := range h.recurring {
			d := time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
			if d.Month() != md.Month {
				continue // 02-29 outside a leap year
			}
			if inRange(d) {
				seen[d] = true
			}
		}
	}
	return len(seen)
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
