package main

import "fmt"

// InputFileError indicates the task batch could not be read.
type InputFileError struct {
	Path string
	Err  error
}

func (e InputFileError) Error() string {
	return fmt.Sprintf("cannot read tasks from %s: %v", e.Path, e.Err)
}

func (e InputFileError) Unwrap() error {
	return e.Err
}
