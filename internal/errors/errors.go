//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// EmptyBatchError indicates an analysis was requested with no tasks.
type EmptyBatchError struct{}

func (e EmptyBatchError) Error() string {
	return "no tasks to analyze: batch is empty"
}

// MissingIDError indicates a task record without a usable integer id.
type MissingIDError struct {
	Index int
}

func (e MissingIDError) Error() string {
	return fmt.Sprintf("task at index %d: id is required and must be an integer", e.Index)
}

// DuplicateIDError indicates two tasks in one batch share an id.
type DuplicateIDError struct {
	ID int
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate task id: %d", e.ID)
}

// MissingTitleError indicates a task with an empty title.
type MissingTitleError struct {
	ID int
}

func (e MissingTitleError) Error() string {
	return fmt.Sprintf("task %d: title is required", e.ID)
}

// UnknownStrategyError indicates a strategy name outside the strategy table.
type UnknownStrategyError struct {
	Name  string
	Valid []string
}

func (e UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown strategy: %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// NoAnalysisError indicates suggestions were requested before any analysis ran.
type NoAnalysisError struct{}

func (e NoAnalysisError) Error() string {
	return "no tasks analyzed yet: run 'triage analyze' first"
}

// InvalidDateError indicates a date argument that is not YYYY-MM-DD.
type InvalidDateError struct {
	Value string
}

func (e InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %q (expected YYYY-MM-DD)", e.Value)
}

// InvalidLimitError indicates a suggestion limit outside the allowed range.
type InvalidLimitError struct {
	Value int
	Max   int
}

func (e InvalidLimitError) Error() string {
	return fmt.Sprintf("invalid limit: %d (valid: 1-%d)", e.Value, e.Max)
}

// IsInputError reports whether err is a batch-level input error, i.e. the
// caller sent something unusable and nothing was scored.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	var (
		empty    EmptyBatchError
		noID     MissingIDError
		dup      DuplicateIDError
		noTitle  MissingTitleError
		strategy UnknownStrategyError
		date     InvalidDateError
		limit    InvalidLimitError
		none     NoAnalysisError
	)
	return errors.As(err, &empty) ||
		errors.As(err, &noID) ||
		errors.As(err, &dup) ||
		errors.As(err, &noTitle) ||
		errors.As(err, &strategy) ||
		errors.As(err, &date) ||
		errors.As(err, &limit) ||
		errors.As(err, &none)
}
