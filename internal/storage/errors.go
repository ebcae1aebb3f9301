package storage

import "fmt"

// parseError represents a snapshot parsing error.
type parseError struct {
	msg string
}

func (e *parseError) Error() string {
	return e.msg
}

// DecodeError indicates a task batch that is not a list of task records.
type DecodeError struct {
	Index int
	Msg   string
}

func (e DecodeError) Error() string {
	if e.Index < 0 {
		return "invalid task batch: " + e.Msg
	}
	return fmt.Sprintf("invalid task batch: task at index %d: %s", e.Index, e.Msg)
}
