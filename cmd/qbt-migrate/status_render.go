package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset        = "\x1b[0m"
	statusLabelWidth = 20
)

// statusPrinter writes "label: [KIND] message" report lines, colored when
// the destination is a terminal.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *statusPrinter) paint(kind statusKind, s string) string {
	if !p.colorize {
		return s
	}
	return statusStyles[kind].color + s + ansiReset
}

func (p *statusPrinter) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(p.out, p.paint(statusInfo, heading))
	fmt.Fprintln(p.out, p.paint(statusInfo, strings.Repeat("-", len(heading))))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	text := "[" + statusStyles[kind].label + "]"
	if message != "" {
		text += " " + message
	}
	fmt.Fprintln(p.out, p.paint(kind, fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", text)))
}

// count reports n as OK when zero and as kind otherwise.
func (p *statusPrinter) count(label string, n int, kind statusKind) {
	if n == 0 {
		kind = statusOK
	}
	p.line(label, kind, fmt.Sprint(n))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
