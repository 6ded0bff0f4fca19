package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the operator whether a failed action should be retried.
// Implementations must be safe to call repeatedly.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// Stdin prompts on the terminal and blocks for a y/n answer. Empty input
// defaults to yes, matching the historical behavior of the tool.
type Stdin struct {
	In  io.Reader
	Out io.Writer
}

func (s *Stdin) Confirm(message string) (bool, error) {
	fmt.Fprintf(s.Out, "%s [Y/n] ", message)
	reader := bufio.NewReader(s.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Auto answers every confirmation the same way without blocking. Used for
// non-interactive runs (--yes, --auto-abort) and tests.
type Auto struct {
	Answer bool
}

func (a Auto) Confirm(string) (bool, error) {
	return a.Answer, nil
}
