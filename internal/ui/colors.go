package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// role is what a piece of text means; the palette decides how it looks.
type role int

const (
	roleSuccess role = iota
	roleError
	roleWarning
	roleInfo
	roleDim
	roleVerbose
	roleAccent
	rolePath
	roleCount
)

// ANSI 16-colour codes per role, bold where the result needs to stand out
// in a long list of renames.
var palette = [roleCount]struct {
	color string
	bold  bool
}{
	roleSuccess: {"10", true},
	roleError:   {"9", true},
	roleWarning: {"11", false},
	roleInfo:    {"12", false},
	roleDim:     {"8", false},
	roleVerbose: {"6", false},
	roleAccent:  {"5", true},
	rolePath:    {"15", false},
}

var styles [roleCount]lipgloss.Style

func init() {
	initStyles()
}

// initStyles rebuilds the styles; off a terminal every role renders plain.
func initStyles() {
	for r := role(0); r < roleCount; r++ {
		s := lipgloss.NewStyle()
		if IsTerminal() {
			s = s.Foreground(lipgloss.Color(palette[r].color)).Bold(palette[r].bold)
		}
		styles[r] = s
	}
}

func render(r role, text string) string {
	return styles[r].Render(text)
}

func Success(text string) string { return render(roleSuccess, text) }
func Error(text string) string   { return render(roleError, text) }
func Warning(text string) string { return render(roleWarning, text) }
func Info(text string) string    { return render(roleInfo, text) }
func Dim(text string) string     { return render(roleDim, text) }

// Verbose renders diagnostic detail.
func Verbose(text string) string { return render(roleVerbose, text) }

// Accent renders mode banners (deep clean, watch).
func Accent(text string) string { return render(roleAccent, text) }

func Path(text string) string { return render(rolePath, text) }

// status writes one "<symbol> message" line.
func status(w io.Writer, r role, symbol, format string, args ...interface{}) {
	fmt.Fprintln(w, render(r, symbol)+" "+fmt.Sprintf(format, args...))
}

func SuccessMsg(format string, args ...interface{}) { status(out, roleSuccess, "✓", format, args...) }
func ErrorMsg(format string, args ...interface{})   { status(out, roleError, "✗", format, args...) }
func WarningMsg(format string, args ...interface{}) { status(out, roleWarning, "⚠", format, args...) }
func InfoMsg(format string, args ...interface{})    { status(out, roleInfo, "ℹ", format, args...) }

// VerboseMsg prints a diagnostic line to stderr.
func VerboseMsg(format string, args ...interface{}) {
	fmt.Fprintln(errOut, Verbose("  [verbose] "+fmt.Sprintf(format, args...)))
}
