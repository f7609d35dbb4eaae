package core

import (
	"errors"
	"fmt"
)

var (
	ErrNameEmpty     = errors.New("name is empty")
	ErrNameUnchanged = errors.New("name unchanged")
	ErrNameTaken     = errors.New("name already taken")
	ErrNotRegistered = errors.New("session not registered")

	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidDelay    = errors.New("delay must be a non-negative number of seconds")

	ErrLineTooLong = errors.New("line too long")
	ErrHubClosed   = errors.New("hub closed")
)

// CommandError reports a malformed command line.
type CommandError struct {
	Word string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Word, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(word string, err error) *CommandError {
	return &CommandError{Word: word, Err: err}
}
