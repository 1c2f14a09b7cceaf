// Package ui renders command output for the tweetrelay CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Banner is printed by commands that talk to the relay
const Banner = `
 ╔══════════════════════════════════════╗
 ║  T W E E T   R E L A Y               ║
 ║  server-sent tweet streaming         ║
 ╚══════════════════════════════════════╝
`

// Console writes styled lines to an output. Styles follow the output's color
// profile, so a non-terminal writer receives plain text.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool

	label     lipgloss.Style
	value     lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	warning   lipgloss.Style
	highlight lipgloss.Style
	dim       lipgloss.Style
}

// NewConsole creates a Console writing to w
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		out:       w,
		label:     r.NewStyle().Foreground(lipgloss.Color("#1D9BF0")).Bold(true),
		value:     r.NewStyle().Foreground(lipgloss.Color("#FFD400")),
		success:   r.NewStyle().Foreground(lipgloss.Color("#00BA7C")).Bold(true),
		failure:   r.NewStyle().Foreground(lipgloss.Color("#F4212E")).Bold(true),
		warning:   r.NewStyle().Foreground(lipgloss.Color("#FFAD1F")),
		highlight: r.NewStyle().Foreground(lipgloss.Color("#F91880")),
		dim:       r.NewStyle().Faint(true),
	}
}

// Writer returns the underlying output
func (c *Console) Writer() io.Writer { return c.out }

// SetQuiet suppresses everything except errors
func (c *Console) SetQuiet(quiet bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quiet = quiet
}

// Quiet reports whether non-error output is suppressed
func (c *Console) Quiet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiet
}

func (c *Console) println(always bool, s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet && !always {
		return
	}
	fmt.Fprintln(c.out, s)
}

// Banner prints the banner
func (c *Console) Banner() {
	c.println(false, c.label.Render(Banner))
}

// Error prints msg, followed by the first arg when given
func (c *Console) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	c.println(true, c.failure.Render(msg))
}

// Warning prints msg, followed by the first arg when given
func (c *Console) Warning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	c.println(false, c.warning.Render(msg))
}

// Success prints msg
func (c *Console) Success(msg string) {
	c.println(false, c.success.Render(msg))
}

// Info prints a label/value pair
func (c *Console) Info(label, value string) {
	c.println(false, c.label.Render(label)+": "+c.value.Render(value))
}

// Highlight prints msg in the accent color
func (c *Console) Highlight(msg string) {
	c.println(false, c.highlight.Render(msg))
}

// Dim prints msg faintly
func (c *Console) Dim(msg string) {
	c.println(false, c.dim.Render(msg))
}

// Printf prints unstyled text without a trailing newline
func (c *Console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, format, args...)
}

var (
	stdMu sync.RWMutex
	std   = NewConsole(os.Stdout)
)

// Default returns the console used by the package-level helpers
func Default() *Console {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// SetOutput replaces the default console's output
func SetOutput(w io.Writer) {
	quiet := Default().Quiet()
	c := NewConsole(w)
	c.SetQuiet(quiet)
	stdMu.Lock()
	std = c
	stdMu.Unlock()
}

// SetQuietMode toggles quiet mode on the default console
func SetQuietMode(quiet bool) { Default().SetQuiet(quiet) }

// PrintLogo prints the banner
func PrintLogo() { Default().Banner() }

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) { Default().Error(msg, args...) }

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) { Default().Warning(msg, args...) }

// PrintSuccess prints a success message
func PrintSuccess(msg string) { Default().Success(msg) }

// PrintInfo prints a label/value pair
func PrintInfo(label, value string) { Default().Info(label, value) }

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) { Default().Highlight(msg) }
