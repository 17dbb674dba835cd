package reserve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator whether the booking went through.
type Prompter interface {
	// Interactive reports whether someone can answer.
	Interactive() bool
	Confirm(ctx context.Context, question string) (string, error)
}

var affirmative = map[string]bool{
	"y":    true,
	"yes":  true,
	"yeah": true,
	"yep":  true,
	"true": true,
	"1":    true,
}

// IsAffirmative reports whether answer means yes, ignoring case and
// surrounding space.
func IsAffirmative(answer string) bool {
	return affirmative[strings.ToLower(strings.TrimSpace(answer))]
}

// TerminalPrompter prompts on a terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout}
}

func (p *TerminalPrompter) Interactive() bool {
	return p.In != nil && term.IsTerminal(int(p.In.Fd()))
}

// Confirm prints question and reads one line. A cancelled ctx abandons the
// read.
func (p *TerminalPrompter) Confirm(ctx context.Context, question string) (string, error) {
	fmt.Fprint(p.Out, question+" ")

	type reply struct {
		line string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- reply{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}
