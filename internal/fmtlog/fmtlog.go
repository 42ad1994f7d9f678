// Package fmtlog renders the agent's narrative output: headers, prose, and
// code blocks, fanned out to any number of sinks. The terminal sink styles
// blocks with lipgloss; the markdown sink appends the same blocks to a
// session log file.
package fmtlog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sink receives formatted blocks.
type Sink interface {
	Header(level int, text string)
	Text(text string)
	Code(code string)
}

// Logger fans formatted blocks out to registered sinks.
type Logger struct {
	sinks []Sink
}

// New returns a logger with no sinks; output is discarded until Register.
func New(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks}
}

// Register adds a sink.
func (l *Logger) Register(s Sink) {
	l.sinks = append(l.sinks, s)
}

// Header emits a markdown-style header at the given level.
func (l *Logger) Header(level int, text string) {
	for _, s := range l.sinks {
		s.Header(level, text)
	}
}

// Text emits a prose line.
func (l *Logger) Text(text string) {
	for _, s := range l.sinks {
		s.Text(text)
	}
}

// Textf emits a formatted prose line.
func (l *Logger) Textf(format string, args ...any) {
	l.Text(fmt.Sprintf(format, args...))
}

// Code emits a code block.
func (l *Logger) Code(code string) {
	for _, s := range l.sinks {
		s.Code(code)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Terminal writes styled blocks to a writer, normally stdout.
type Terminal struct {
	Out io.Writer
}

// NewTerminal returns a terminal sink on stdout.
func NewTerminal() *Terminal {
	return &Terminal{Out: os.Stdout}
}

func (t *Terminal) Header(level int, text string) {
	fmt.Fprintln(t.Out, headerStyle.Render(strings.Repeat("#", level)+" "+text))
}

func (t *Terminal) Text(text string) {
	fmt.Fprintln(t.Out, textStyle.Render(text))
}

func (t *Terminal) Code(code string) {
	fmt.Fprintln(t.Out, codeStyle.Render(code))
}

// Markdown appends blocks to a markdown session log.
type Markdown struct {
	w io.Writer
}

// NewMarkdown opens (or creates) the markdown log at path for appending.
func NewMarkdown(path string) (*Markdown, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open markdown log %s: %w", path, err)
	}
	return &Markdown{w: f}, nil
}

// NewMarkdownWriter wraps an existing writer, mainly for tests.
func NewMarkdownWriter(w io.Writer) *Markdown {
	return &Markdown{w: w}
}

func (m *Markdown) Header(level int, text string) {
	fmt.Fprintf(m.w, "%s %s\n\n", strings.Repeat("#", level), strings.TrimSpace(text))
}

func (m *Markdown) Text(text string) {
	fmt.Fprintf(m.w, "%s\n\n", strings.TrimSpace(text))
}

func (m *Markdown) Code(code string) {
	fmt.Fprintf(m.w, "```\n%s\n```\n\n", strings.TrimSpace(code))
}
