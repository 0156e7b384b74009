package exit

import (
	"fmt"
	"io"
)

// Result holds the message and exit code for early program termination.
type Result struct {
	ExitCode int
	Message  string
}

// Print writes the message to stdout on success and to stderr otherwise.
func (r *Result) Print(stdout, stderr io.Writer) {
	w := stdout
	if r.ExitCode != 0 {
		w = stderr
	}
	fmt.Fprintln(w, r.Message)
}

// Success creates a result that exits with code 0.
func Success(message string) *Result {
	return &Result{ExitCode: 0, Message: message}
}

// Error creates a result that exits with code 1.
func Error(message string) *Result {
	return &Result{ExitCode: 1, Message: message}
}

// Errorf creates an error result with formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}
