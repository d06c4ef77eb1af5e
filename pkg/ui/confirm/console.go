// Package confirm asks yes/no questions on a console.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Request is one yes/no question.
type Request struct {
	Question string
	// Items are listed under the question, at most three then a count.
	Items []string
	// Default is the answer to an empty reply.
	Default bool
}

// ConsoleDialog reads answers from in and prints prompts to out.
type ConsoleDialog struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleDialog creates a dialog on the given streams.
func NewConsoleDialog(in io.Reader, out io.Writer) *ConsoleDialog {
	return &ConsoleDialog{in: bufio.NewReader(in), out: out}
}

// Ask prints req and reads one line. End of input counts as the default.
func (d *ConsoleDialog) Ask(req Request) (bool, error) {
	fmt.Fprintln(d.out, req.Question)
	if n := len(req.Items); n > 0 {
		if n <= 3 {
			fmt.Fprintf(d.out, "    └── %s\n", strings.Join(req.Items, ", "))
		} else {
			fmt.Fprintf(d.out, "    └── %s and %d more\n", strings.Join(req.Items[:3], ", "), n-3)
		}
	}

	marker := "[y/N]"
	if req.Default {
		marker = "[Y/n]"
	}
	fmt.Fprintf(d.out, "Continue? %s: ", marker)

	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return req.Default, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
