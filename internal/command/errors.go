package command

import "errors"

// Domain errors for command parsing. Callers discriminate with
// errors.Is; all three classes abort before any transport I/O occurs.
var (
	// ErrUnknownCommand is returned when the command name is not in the
	// vocabulary.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrArgCount is returned when a recognised command is given the
	// wrong number of arguments.
	ErrArgCount = errors.New("command: argument count mismatch")

	// ErrArgParse is returned when a numeric literal or unit suffix is
	// malformed.
	ErrArgParse = errors.New("command: malformed argument")
)
