// Package prompt asks the sort questions on a terminal.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/tasksort/internal/apperr"
)

// Terminal reads answers line by line from in and writes questions to out.
// An empty answer, "q" or end of input cancels.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// PromptChoice lists options numbered from 1 and returns the picked one.
func (t *Terminal) PromptChoice(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("prompt: %q has no options: %w", title, apperr.ErrInvalid)
	}
	fmt.Fprintln(t.out, title)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, o)
	}
	for {
		fmt.Fprintf(t.out, "Choose 1-%d (q to cancel): ", len(options))
		answer, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		fmt.Fprintf(t.out, "%q is not one of the choices\n", answer)
	}
}

// PromptYesNo asks message until it gets y/yes or n/no.
func (t *Terminal) PromptYesNo(ctx context.Context, message string) (bool, error) {
	for {
		fmt.Fprintf(t.out, "%s [y/n] ", message)
		answer, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.ErrCancelled
	}
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", apperr.ErrCancelled
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "q") {
		return "", apperr.ErrCancelled
	}
	return line, nil
}
