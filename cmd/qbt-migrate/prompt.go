package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var errPromptAborted = errors.New("prompt aborted")

type prompter interface {
	Prompt(label string) (string, error)
	Close() error
}

// newPrompter returns a line editor when stdin is a terminal and a plain line
// reader over the command's input otherwise, so answers can be piped in.
func newPrompter(cmd *cobra.Command) prompter {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		return &linerPrompter{state: state}
	}
	return &readerPrompter{r: bufio.NewReader(in), out: cmd.ErrOrStderr()}
}

type linerPrompter struct {
	state *liner.State
}

func (p *linerPrompter) Prompt(label string) (string, error) {
	line, err := p.state.Prompt(label)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errPromptAborted
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *linerPrompter) Close() error { return p.state.Close() }

type readerPrompter struct {
	r   *bufio.Reader
	out io.Writer
}

func (p *readerPrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *readerPrompter) Close() error { return nil }

// promptRequired asks for a flag value the user did not pass.
func promptRequired(cmd *cobra.Command, p prompter, label, flag string, value *string) error {
	if cmd.Flags().Changed(flag) {
		return nil
	}
	answer, err := p.Prompt(label)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("--%s is required", flag)
		}
		return err
	}
	if answer == "" {
		return fmt.Errorf("--%s is required", flag)
	}
	*value = answer
	return nil
}
