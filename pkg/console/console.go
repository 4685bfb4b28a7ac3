// Package console is the diagnostic sink the toolchain reports through.
// Severities only select a colour; nothing parses the output.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"
)

type Severity int

const (
	Info Severity = iota
	Success
	Error
	Accent
	Title
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Success:
		return "success"
	case Error:
		return "error"
	case Accent:
		return "accent"
	case Title:
		return "title"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

type Sink interface {
	Println(text string, sev Severity)
}

// Discard drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) Println(string, Severity) {}

// ansiColors mirrors the kernel theme: light grey text, green for success,
// red for errors, yellow accents and cyan titles.
var ansiColors = map[Severity]termenv.ANSIColor{
	Info:    termenv.ANSIWhite,
	Success: termenv.ANSIBrightGreen,
	Error:   termenv.ANSIBrightRed,
	Accent:  termenv.ANSIBrightYellow,
	Title:   termenv.ANSIBrightCyan,
}

// Terminal writes one line per message to an io.Writer, coloured when the
// writer is a terminal that supports it.
type Terminal struct {
	mu  sync.Mutex
	out *termenv.Output
}

func NewTerminal(w io.Writer, color bool) *Terminal {
	opts := []termenv.OutputOption{}
	if !color {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &Terminal{out: termenv.NewOutput(w, opts...)}
}

func (t *Terminal) styled(text string, sev Severity) string {
	style := t.out.String(text).Foreground(t.out.Color(fmt.Sprint(int(ansiColors[sev]))))
	if sev == Title {
		style = style.Bold()
	}
	return style.String()
}

func (t *Terminal) Println(text string, sev Severity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.styled(text, sev))
}

// Prompt writes text in the accent colour without ending the line.
func (t *Terminal) Prompt(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, t.styled(text, Accent))
}

// Clear erases the screen and homes the cursor.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.ClearScreen()
}

type Line struct {
	Text     string
	Severity Severity
}

// Recorder keeps every line in memory.
type Recorder struct {
	mu    sync.Mutex
	Lines []Line
}

func (r *Recorder) Println(text string, sev Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, Line{Text: text, Severity: sev})
}

// Texts returns just the text of the recorded lines.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.Lines = nil
	r.mu.Unlock()
}

// Tee fans lines out to several sinks.
type Tee []Sink

func (t Tee) Println(text string, sev Severity) {
	for _, s := range t {
		s.Println(text, sev)
	}
}
